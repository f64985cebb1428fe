package httpapi

import (
	"net/http"
	"slices"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

type MetricsHistoryResponse struct {
	Items []models.MetricSample `json:"items"`
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit > 500 {
		limit = 500
	}
	items, err := services.LatestMetrics(r.Context(), s.DB, limit)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, MetricsHistoryResponse{Items: items})
}

// MetricsSocket streams dashboard samples. Browsers cannot set headers on a
// websocket handshake, so the session token travels in the query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		s.WriteServiceError(w, r, services.ErrUnauthenticated("Authentication required"))
		return
	}
	identity, err := s.Tokens.IdentityFromToken(raw)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	ok, err := s.Gate.Directory.IsAdmin(r.Context(), *identity)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if !ok {
		s.WriteServiceError(w, r, services.ErrForbidden("Admin access required"))
		return
	}
	origins := s.Config.CorsOrigins()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(origins) == 0 || slices.Contains(origins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
