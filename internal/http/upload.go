package httpapi

import (
	"errors"
	"net/http"

	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"
)

const multipartOverhead = 1 << 20

// Upload stores an image under projects/ or companies/ depending on the "type" field.
// The content type is sniffed from the bytes, not taken from the client.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.Config.UploadMaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.WriteServiceError(w, r, services.ErrFileUpload("File is too large"))
			return
		}
		s.WriteServiceError(w, r, services.ErrFileUpload("Invalid upload form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.WriteServiceError(w, r, services.ErrFileUpload("File is required").WithDetail("fields", map[string]string{"file": "File is required"}))
		return
	}
	defer file.Close()

	upload, err := s.Media.Read(header.Filename, file)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	kind := r.FormValue("type")
	result := validation.ValidateForm(validation.Record{
		"size":        upload.Size(),
		"contentType": upload.ContentType,
		"type":        kind,
	}, validation.UploadSchema(maxBytes))
	if !result.IsValid {
		s.WriteServiceError(w, r, services.ErrFileUpload(result.Errors[0]).WithDetail("fields", result.FieldErrors))
		return
	}
	dir, _ := services.UploadDir(kind)
	stored, err := s.Media.Save(r.Context(), dir, upload)
	if err != nil {
		s.WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, stored)
}
