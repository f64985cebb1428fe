package httpapi

import (
	"net/http"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"
)

func (s *Server) ListExperiences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := services.Cached(s.Lists, services.CacheKeyExperiences, func() ([]models.Experience, error) {
		return s.Store.Experiences.List(ctx)
	})
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, items)
}

func (s *Server) GetExperience(w http.ResponseWriter, r *http.Request) {
	experience, err := s.loadExperience(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, experience)
}

func (s *Server) CreateExperience(w http.ResponseWriter, r *http.Request) {
	var in models.ExperienceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	in = in.Normalize()
	if result := validation.ValidateExperience(in); !result.IsValid {
		s.WriteServiceError(w, r, validationFailure(result))
		return
	}
	experience, err := s.Store.Experiences.Create(r.Context(), in)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	s.contentChanged("/", "/experience")
	WriteData(w, http.StatusCreated, experience)
}

func (s *Server) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	existing, err := s.loadExperience(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	var patch models.ExperiencePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if result := validation.ValidateExperience(patch.Apply(existing.Input())); !result.IsValid {
		s.WriteServiceError(w, r, validationFailure(result))
		return
	}
	updated, err := s.Store.Experiences.Update(r.Context(), existing.ID, patch)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if updated == nil {
		s.WriteServiceError(w, r, services.ErrNotFound("Experience not found"))
		return
	}
	if old := existing.CompanyLogo; old != nil && (updated.CompanyLogo == nil || *updated.CompanyLogo != *old) {
		s.removeFile(r.Context(), *old)
	}
	if !patch.Empty() {
		s.contentChanged("/", "/experience")
	}
	WriteData(w, http.StatusOK, updated)
}

func (s *Server) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	existing, err := s.loadExperience(r)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	deleted, err := s.Store.Experiences.Delete(r.Context(), existing.ID)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	if !deleted {
		s.WriteServiceError(w, r, services.ErrNotFound("Experience not found"))
		return
	}
	if existing.CompanyLogo != nil {
		s.removeFile(r.Context(), *existing.CompanyLogo)
	}
	s.contentChanged("/", "/experience")
	WriteOK(w)
}

func (s *Server) loadExperience(r *http.Request) (*models.Experience, error) {
	id, err := parseID(r)
	if err != nil {
		return nil, err
	}
	experience, err := s.Store.Experiences.Get(r.Context(), id)
	return orNotFound(experience, err, "Experience not found")
}
