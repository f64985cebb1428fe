package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
)

const (
	WebhookSignatureHeader = "X-Webhook-Signature"

	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

const maxWebhookBytes = 256 << 10

type IdentityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"data"`
}

// IdentityWebhook keeps the admins table in sync with the identity provider.
// Only e-mails on the ADMIN_EMAILS allow-list are provisioned.
func (s *Server) IdentityWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		s.WriteServiceError(w, r, services.ErrValidation("Invalid payload", nil))
		return
	}
	if !services.VerifyWebhook([]byte(s.Config.WebhookSecret), body, r.Header.Get(WebhookSignatureHeader)) {
		s.WriteServiceError(w, r, services.ErrUnauthenticated("Invalid webhook signature"))
		return
	}
	var event IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Data.ID == "" {
		s.WriteServiceError(w, r, services.ErrValidation("Invalid payload", nil))
		return
	}
	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(event.Data.Email))
	allowed := email != "" && slices.Contains(s.Config.AdminEmails(), email)

	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		if allowed {
			if _, err := s.Store.Admins.Upsert(ctx, models.AdminIdentity{
				ExternalID: event.Data.ID,
				Email:      email,
				Name:       strings.TrimSpace(event.Data.Name),
				Role:       models.RoleAdmin,
			}); err != nil {
				s.WriteServiceError(w, r, err)
				return
			}
			slog.InfoContext(ctx, "admin provisioned", "external_id", event.Data.ID, "event", event.Type)
		} else if event.Type == EventUserUpdated {
			if _, err := s.Store.Admins.DeleteByExternalID(ctx, event.Data.ID); err != nil {
				s.WriteServiceError(w, r, err)
				return
			}
		}
	case EventUserDeleted:
		removed, err := s.Store.Admins.DeleteByExternalID(ctx, event.Data.ID)
		if err != nil {
			s.WriteServiceError(w, r, err)
			return
		}
		if removed {
			slog.InfoContext(ctx, "admin removed", "external_id", event.Data.ID)
		}
	default:
		slog.DebugContext(ctx, "identity event ignored", "event", event.Type)
	}
	WriteOK(w)
}
