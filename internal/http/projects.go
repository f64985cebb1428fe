package httpapi

import (
	"net/http"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"
)

func validationFailure(result validation.FormResult) error {
	message := "Validation failed"
	if len(result.Errors) > 0 {
		message = result.Errors[0]
	}
	return services.ErrValidation(message, result.FieldErrors)
}

func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, load := services.CacheKeyProjects, s.Store.Projects.List
	if r.URL.Query().Get("featured") == "true" {
		key, load = services.CacheKeyFeaturedProjects, s.Store.Projects.ListFeatured
	}
	items, err := services.Cached(s.Lists, key, func() ([]models.Project, error) { return load(ctx) })
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, items)
}

func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.loadProject(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, project)
}

func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in models.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	in = in.Normalize()
	if result := validation.ValidateProject(in); !result.IsValid {
		s.WriteServiceError(w, r, validationFailure(result))
		return
	}
	project, err := s.Store.Projects.Create(r.Context(), in)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	s.contentChanged("/", "/projects")
	WriteData(w, http.StatusCreated, project)
}

// UpdateProject validates the merged record, then writes only the supplied fields.
func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	existing, err := s.loadProject(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	var patch models.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if result := validation.ValidateProject(patch.Apply(existing.Input())); !result.IsValid {
		s.WriteServiceError(w, r, validationFailure(result))
		return
	}
	updated, err := s.Store.Projects.Update(r.Context(), existing.ID, patch)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if updated == nil {
		s.WriteServiceError(w, r, services.ErrNotFound("Project not found"))
		return
	}
	if existing.ImageURL != updated.ImageURL {
		s.removeFile(r.Context(), existing.ImageURL)
	}
	if !patch.Empty() {
		s.contentChanged("/", "/projects")
	}
	WriteData(w, http.StatusOK, updated)
}

// DeleteProject removes the row first; the image file is cleaned up afterwards on a best-effort basis.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	existing, err := s.loadProject(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	deleted, err := s.Store.Projects.Delete(r.Context(), existing.ID)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if !deleted {
		s.WriteServiceError(w, r, services.ErrNotFound("Project not found"))
		return
	}
	s.removeFile(r.Context(), existing.ImageURL)
	s.contentChanged("/", "/projects")
	WriteOK(w)
}

func (s *Server) loadProject(r *http.Request) (*models.Project, error) {
	id, err := parseID(r)
	if err != nil {
		return nil, err
	}
	project, err := s.Store.Projects.Get(r.Context(), id)
	return orNotFound(project, err, "Project not found")
}

// orNotFound turns a (nil, nil) lookup into a not-found error.
func orNotFound[T any](value *T, err error, message string) (*T, error) {
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, services.ErrNotFound(message)
	}
	return value, nil
}
