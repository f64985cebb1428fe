package httpapi

import (
	"log/slog"
	"net/http"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
)

type StatsResponse struct {
	models.ContentCounts
	Admins        int   `json:"admins"`
	UploadsBytes  int64 `json:"uploadsBytes"`
	LiveListeners int   `json:"liveListeners"`
}

func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := s.Store.Counts(ctx)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	admins, err := s.Store.Admins.Count(ctx)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, StatsResponse{
		ContentCounts: counts,
		Admins:        admins,
		UploadsBytes:  s.Media.DiskUsage(),
		LiveListeners: s.MetricsHub.Len(),
	})
}

// ListAdmins shows who currently holds admin access, oldest first.
func (s *Server) ListAdmins(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.Admins.List(r.Context())
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, items)
}

// PruneUploads removes stored files no longer referenced by any project or experience.
func (s *Server) PruneUploads(w http.ResponseWriter, r *http.Request) {
	referenced, err := s.Store.ReferencedUploads(r.Context())
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	total := services.PruneResult{Errors: []string{}}
	for _, dir := range []string{services.DirProjects, services.DirCompanies} {
		result := s.Media.PruneOrphans(referenced, dir)
		total.Cleaned += result.Cleaned
		total.Errors = append(total.Errors, result.Errors...)
	}
	slog.InfoContext(r.Context(), "uploads pruned", "cleaned", total.Cleaned, "errors", len(total.Errors))
	WriteData(w, http.StatusOK, total)
}
