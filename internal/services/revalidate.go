package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Revalidator asks the public front end to rebuild pages after content changes.
// A zero URL disables it.
type Revalidator struct {
	URL    string
	Secret string
	Client *http.Client
}

func (r Revalidator) Enabled() bool { return r.URL != "" }

func (r Revalidator) Revalidate(ctx context.Context, paths ...string) error {
	if !r.Enabled() {
		return nil
	}
	body, err := json.Marshal(map[string]any{"secret": r.Secret, "paths": paths})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("revalidate: unexpected status %d", resp.StatusCode)
	}
	return nil
}
