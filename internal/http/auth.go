package httpapi

import (
	"context"
	"net/http"

	"devfolio-backend-go/internal/services"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// RequireAdmin runs the identity gate before the wrapped handler touches persistence.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.Gate.RequireAdminIdentity(r)
		if err != nil {
			s.WriteServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxIdentity, *identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CurrentIdentity(r *http.Request) (services.Identity, bool) {
	identity, ok := r.Context().Value(ctxIdentity).(services.Identity)
	return identity, ok
}
