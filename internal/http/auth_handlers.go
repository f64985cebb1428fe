package httpapi

import (
	"net/http"
	"strings"
	"time"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string                `json:"token"`
	ExpiresAt int64                 `json:"expiresAt"`
	Admin     *models.AdminIdentity `json:"admin"`
}

type MeResponse struct {
	Identity services.Identity     `json:"identity"`
	Admin    *models.AdminIdentity `json:"admin"`
}

// Login is the local identity provider: a single operator configured through
// ADMIN_EMAIL and ADMIN_PASSWORD_HASH.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if err := s.checkRate(r, "login:"); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		s.WriteServiceError(w, r, services.ErrUnauthenticated("Authentication failed"))
		return
	}
	if s.Config.AdminPasswordHash == "" || email != strings.ToLower(s.Config.AdminEmail) ||
		!s.Tokens.VerifyPassword(req.Password, s.Config.AdminPasswordHash) {
		s.WriteServiceError(w, r, services.ErrUnauthenticated("Authentication failed"))
		return
	}
	admin, err := s.Store.Admins.Upsert(r.Context(), models.AdminIdentity{
		ExternalID: s.Config.AdminExternalID,
		Email:      email,
		Name:       "Administrator",
		Role:       models.RoleAdmin,
	})
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	identity := services.Identity{ExternalID: admin.ExternalID, Email: admin.Email, Name: admin.Name}
	token, exp, err := s.Tokens.CreateSessionToken(identity)
	if err != nil {
		s.WriteServiceError(w, r, services.ErrUnknown(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     services.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(exp, 0),
		HttpOnly: true,
		Secure:   s.Config.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	WriteData(w, http.StatusOK, SessionResponse{Token: token, ExpiresAt: exp, Admin: admin})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     services.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Config.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	WriteOK(w)
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := CurrentIdentity(r)
	if !ok {
		s.WriteServiceError(w, r, services.ErrUnauthenticated("Authentication required"))
		return
	}
	admin, err := s.Store.Admins.FindByExternalID(r.Context(), identity.ExternalID)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, MeResponse{Identity: identity, Admin: admin})
}
