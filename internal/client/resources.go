package client

import (
	"context"
	"net/http"
	"strconv"

	"devfolio-backend-go/internal/models"
)

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

type Projects struct{ c *Client }

func (c *Client) Projects() Projects { return Projects{c: c} }

func (p Projects) List(ctx context.Context) ([]models.Project, error) {
	var items []models.Project
	err := p.c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &items)
	return items, err
}

func (p Projects) Get(ctx context.Context, id int64) (models.Project, error) {
	var item models.Project
	err := p.c.doJSON(ctx, http.MethodGet, itemPath("/api/projects", id), nil, &item)
	return item, err
}

func (p Projects) Create(ctx context.Context, in models.ProjectInput) (models.Project, error) {
	var item models.Project
	err := p.c.doJSON(ctx, http.MethodPost, "/api/projects", in.Normalize(), &item)
	return item, err
}

// Update sends every field so the form's view of the record wins.
func (p Projects) Update(ctx context.Context, id int64, in models.ProjectInput) (models.Project, error) {
	var item models.Project
	err := p.c.doJSON(ctx, http.MethodPut, itemPath("/api/projects", id), in.Full(), &item)
	return item, err
}

func (p Projects) Delete(ctx context.Context, id int64) error {
	return p.c.doJSON(ctx, http.MethodDelete, itemPath("/api/projects", id), nil, nil)
}

type Experiences struct{ c *Client }

func (c *Client) Experiences() Experiences { return Experiences{c: c} }

func (e Experiences) List(ctx context.Context) ([]models.Experience, error) {
	var items []models.Experience
	err := e.c.doJSON(ctx, http.MethodGet, "/api/experiences", nil, &items)
	return items, err
}

func (e Experiences) Create(ctx context.Context, in models.ExperienceInput) (models.Experience, error) {
	var item models.Experience
	err := e.c.doJSON(ctx, http.MethodPost, "/api/experiences", in.Normalize(), &item)
	return item, err
}

func (e Experiences) Update(ctx context.Context, id int64, in models.ExperienceInput) (models.Experience, error) {
	var item models.Experience
	err := e.c.doJSON(ctx, http.MethodPut, itemPath("/api/experiences", id), in.Full(), &item)
	return item, err
}

func (e Experiences) Delete(ctx context.Context, id int64) error {
	return e.c.doJSON(ctx, http.MethodDelete, itemPath("/api/experiences", id), nil, nil)
}

// Messages has no create or update; new messages only arrive through the public form.
type Messages struct{ c *Client }

func (c *Client) Messages() Messages { return Messages{c: c} }

func (m Messages) List(ctx context.Context) ([]models.ContactMessage, error) {
	var items []models.ContactMessage
	err := m.c.doJSON(ctx, http.MethodGet, "/api/contact", nil, &items)
	return items, err
}

func (m Messages) MarkRead(ctx context.Context, id int64, read bool) (models.ContactMessage, error) {
	var item models.ContactMessage
	err := m.c.doJSON(ctx, http.MethodPut, itemPath("/api/contact", id), models.ContactPatch{Read: &read}, &item)
	return item, err
}

func (m Messages) Delete(ctx context.Context, id int64) error {
	return m.c.doJSON(ctx, http.MethodDelete, itemPath("/api/contact", id), nil, nil)
}

// Submit posts to the public contact form.
func (m Messages) Submit(ctx context.Context, in models.ContactInput) (models.ContactMessage, error) {
	var item models.ContactMessage
	err := m.c.doJSON(ctx, http.MethodPost, "/api/contact", in, &item)
	return item, err
}
