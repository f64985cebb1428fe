package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"
)

// UnreadCountHeader carries the unread total alongside the admin message list.
const UnreadCountHeader = "X-Unread-Count"

// SubmitContact is public. Submissions are rate limited per client address.
func (s *Server) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if err := s.checkRate(r, "contact:"); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	var in models.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	in = in.Normalize()
	if result := validation.ValidateContact(in); !result.IsValid {
		s.WriteServiceError(w, r, validationFailure(result))
		return
	}
	message, err := s.Store.Messages.Create(r.Context(), in)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	go s.notifyContact(*message)
	WriteData(w, http.StatusCreated, message)
}

func (s *Server) notifyContact(message models.ContactMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Notifier.NotifyContact(ctx, message); err != nil {
		slog.Warn("contact notification failed", "message_id", message.ID, "error", err)
	}
}

func (s *Server) checkRate(r *http.Request, prefix string) error {
	decision, err := s.Limiter.Allow(r.Context(), prefix+clientIP(r))
	if err != nil {
		slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
		return nil
	}
	if !decision.Allowed {
		return services.ErrRateLimited(decision.RetryAfter)
	}
	return nil
}

func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := s.Store.Messages.List(ctx)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	unread, err := s.Store.Messages.CountUnread(ctx)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	w.Header().Set(UnreadCountHeader, strconv.Itoa(unread))
	WriteData(w, http.StatusOK, items)
}

// UpdateMessage only accepts the read flag.
func (s *Server) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	var patch models.ContactPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if patch.Empty() {
		s.WriteServiceError(w, r, services.ErrValidation("Read flag is required", map[string]string{"read": "Read flag is required"}))
		return
	}
	message, err := s.Store.Messages.Update(r.Context(), id, patch)
	if _, err = orNotFound(message, err, "Message not found"); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, message)
}

func (s *Server) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	deleted, err := s.Store.Messages.Delete(r.Context(), id)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if !deleted {
		s.WriteServiceError(w, r, services.ErrNotFound("Message not found"))
		return
	}
	WriteOK(w)
}
