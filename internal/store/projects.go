package store

import (
	"context"
	"strings"

	"devfolio-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	ProjectTitle       Column = "title"
	ProjectDescription Column = "description"
	ProjectTechStack   Column = "tech_stack"
	ProjectGithubURL   Column = "github_url"
	ProjectDemoURL     Column = "demo_url"
	ProjectImageURL    Column = "image_url"
	ProjectFeatured    Column = "featured"
)

var projectUpdates = updateBuilder{
	table: "projects",
	columns: []Column{
		ProjectTitle, ProjectDescription, ProjectTechStack, ProjectGithubURL,
		ProjectDemoURL, ProjectImageURL, ProjectFeatured,
	},
}

const projectColumns = `id, title, description, tech_stack, github_url, demo_url, image_url, featured, created_at, updated_at`

type Projects struct {
	db *sqlx.DB
}

// List returns featured projects first, then newest first.
func (p *Projects) List(ctx context.Context) ([]models.Project, error) {
	items := []models.Project{}
	err := p.db.SelectContext(ctx, &items, `SELECT `+projectColumns+` FROM projects ORDER BY featured DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, storageError(ctx, "projects.list", 0, err)
	}
	return items, nil
}

func (p *Projects) ListFeatured(ctx context.Context) ([]models.Project, error) {
	items := []models.Project{}
	err := p.db.SelectContext(ctx, &items, p.db.Rebind(`SELECT `+projectColumns+` FROM projects WHERE featured = ? ORDER BY created_at DESC, id DESC`), true)
	if err != nil {
		return nil, storageError(ctx, "projects.list_featured", 0, err)
	}
	return items, nil
}

// Get returns nil without error when the project does not exist.
func (p *Projects) Get(ctx context.Context, id int64) (*models.Project, error) {
	return getOne[models.Project](ctx, p.db, "projects.get", id, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
}

func (p *Projects) Create(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	in = in.Normalize()
	at := now()
	var id int64
	err := p.db.GetContext(ctx, &id, p.db.Rebind(`
INSERT INTO projects (title, description, tech_stack, github_url, demo_url, image_url, featured, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		in.Title, in.Description, in.TechStack, in.GithubURL, in.DemoURL, in.ImageURL, in.Featured, at, at)
	if err != nil {
		return nil, storageError(ctx, "projects.create", 0, err)
	}
	return p.Get(ctx, id)
}

// Update writes only the patched columns. An empty patch returns the current row untouched.
func (p *Projects) Update(ctx context.Context, id int64, patch models.ProjectPatch) (*models.Project, error) {
	columns := ProjectColumns(patch)
	if columns.Empty() {
		return p.Get(ctx, id)
	}
	query, args, err := projectUpdates.build(id, columns, now())
	if err != nil {
		return nil, storageError(ctx, "projects.update", id, err)
	}
	result, err := p.db.ExecContext(ctx, p.db.Rebind(query), args...)
	if err != nil {
		return nil, storageError(ctx, "projects.update", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, nil
	}
	return p.Get(ctx, id)
}

func (p *Projects) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, p.db, "projects", id)
}

// ImageURLs lists the image of every project.
func (p *Projects) ImageURLs(ctx context.Context) ([]string, error) {
	var values []*string
	if err := p.db.SelectContext(ctx, &values, `SELECT image_url FROM projects`); err != nil {
		return nil, storageError(ctx, "projects.image_urls", 0, err)
	}
	return nonEmpty(values), nil
}

// ProjectColumns converts a normalized patch into column assignments.
func ProjectColumns(patch models.ProjectPatch) Patch {
	columns := Patch{}
	if patch.Title != nil {
		columns.Set(ProjectTitle, strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		columns.Set(ProjectDescription, strings.TrimSpace(*patch.Description))
	}
	if patch.TechStack != nil {
		columns.Set(ProjectTechStack, patch.TechStack.Clean())
	}
	if patch.GithubURL != nil {
		columns.Set(ProjectGithubURL, optionalText(patch.GithubURL))
	}
	if patch.DemoURL != nil {
		columns.Set(ProjectDemoURL, optionalText(patch.DemoURL))
	}
	if patch.ImageURL != nil {
		columns.Set(ProjectImageURL, strings.TrimSpace(*patch.ImageURL))
	}
	if patch.Featured != nil {
		columns.Set(ProjectFeatured, *patch.Featured)
	}
	return columns
}

// optionalText maps a blank string to SQL NULL.
func optionalText(value *string) any {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return strings.TrimSpace(*value)
}
