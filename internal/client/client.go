// Package client talks to the portfolio API and turns failure envelopes back
// into *services.ServiceError values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return services.ErrValidation("Could not encode request", nil)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return services.ErrUnknown(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return services.AsServiceError(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &services.ServiceError{
			Kind:    services.KindUnknown,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Unexpected response (%d)", resp.StatusCode),
			Err:     err,
		}
	}
	if !env.Success {
		return decodeFailure(resp.StatusCode, env)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return services.ErrUnknown(err)
	}
	return nil
}

// decodeFailure rebuilds the server's error. Field errors come back as
// map[string]string so forms can show them without further conversion.
func decodeFailure(status int, env envelope) *services.ServiceError {
	kind := services.KindFromCode(env.Code)
	message := env.Error
	if message == "" {
		message = http.StatusText(status)
	}
	details := env.Details
	if raw, ok := details["fields"].(map[string]any); ok {
		fields := make(map[string]string, len(raw))
		for key, value := range raw {
			fields[key] = fmt.Sprint(value)
		}
		details["fields"] = fields
	}
	return &services.ServiceError{Kind: kind, Status: status, Message: message, Details: details}
}

// Login exchanges the local admin credentials for a session token and keeps it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var session struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return err
	}
	c.Token = session.Token
	return nil
}

// Upload sends an image as multipart form data. kind is "project" or "logo".
func (c *Client) Upload(ctx context.Context, kind, filename string, data []byte) (services.StoredFile, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("type", kind); err != nil {
		return services.StoredFile{}, services.ErrUnknown(err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return services.StoredFile{}, services.ErrUnknown(err)
	}
	if _, err := part.Write(data); err != nil {
		return services.StoredFile{}, services.ErrUnknown(err)
	}
	if err := writer.Close(); err != nil {
		return services.StoredFile{}, services.ErrUnknown(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload", &body)
	if err != nil {
		return services.StoredFile{}, services.ErrUnknown(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var stored services.StoredFile
	err = c.send(req, &stored)
	return stored, err
}

// PruneOrphans asks the server to sweep both upload directories.
func (c *Client) PruneOrphans(ctx context.Context) (services.PruneResult, error) {
	var result services.PruneResult
	err := c.doJSON(ctx, http.MethodPost, "/api/admin/uploads/prune", nil, &result)
	return result, err
}

type Stats struct {
	Projects         int   `json:"projects"`
	FeaturedProjects int   `json:"featuredProjects"`
	Experiences      int   `json:"experiences"`
	Messages         int   `json:"messages"`
	UnreadMessages   int   `json:"unreadMessages"`
	Admins           int   `json:"admins"`
	UploadsBytes     int64 `json:"uploadsBytes"`
	LiveListeners    int   `json:"liveListeners"`
}

func (c *Client) Admins(ctx context.Context) ([]models.AdminIdentity, error) {
	var items []models.AdminIdentity
	err := c.doJSON(ctx, http.MethodGet, "/api/admin/admins", nil, &items)
	return items, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.doJSON(ctx, http.MethodGet, "/api/admin/stats", nil, &stats)
	return stats, err
}
