package manager

import (
	"context"
	"errors"
	"fmt"

	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNoForm          = errors.New("no form is open")
	ErrNoPendingDelete = errors.New("no delete is awaiting confirmation")
	ErrReadOnly        = errors.New("resource does not support create or update")
	ErrInvalidForm     = errors.New("form has invalid fields")
)

// pendingUpload stands in for the image URL while a picked file is validated.
const pendingUpload = "/uploads/pending"

// Backend is the minimum a managed resource offers: listing and deleting.
type Backend[T Entity] interface {
	List(ctx context.Context) ([]T, error)
	Delete(ctx context.Context, id int64) error
}

// Writer is implemented by resources that can be created and updated through the form.
type Writer[T Entity, I any] interface {
	Create(ctx context.Context, input I) (T, error)
	Update(ctx context.Context, id int64, input I) (T, error)
}

type Uploader interface {
	Upload(ctx context.Context, kind, filename string, data []byte) (services.StoredFile, error)
}

type Options[T Entity, I any] struct {
	// Name is used in notifications, e.g. "Project".
	Name     string
	Blank    func() I
	InputOf  func(T) I
	Validate func(I) validation.FormResult

	Uploader       Uploader
	UploadKind     string
	AttachFile     func(I, string) I
	MaxUploadBytes int64
}

// Manager drives one resource. It is not safe for concurrent use; the admin
// surface issues one action at a time.
type Manager[T Entity, I any] struct {
	backend Backend[T]
	opts    Options[T, I]
	state   Snapshot[T, I]
}

func New[T Entity, I any](backend Backend[T], opts Options[T, I]) *Manager[T, I] {
	if opts.Name == "" {
		opts.Name = "Item"
	}
	return &Manager[T, I]{backend: backend, opts: opts, state: Snapshot[T, I]{Status: StatusIdle}}
}

func (m *Manager[T, I]) Snapshot() Snapshot[T, I] { return m.state }

func (m *Manager[T, I]) Mount(ctx context.Context) error { return m.Refresh(ctx) }

func (m *Manager[T, I]) Refresh(ctx context.Context) error {
	m.state = m.state.loading()
	items, err := m.backend.List(ctx)
	if err != nil {
		m.state = m.state.loadFailed(err)
		return err
	}
	m.state = m.state.loaded(items)
	return nil
}

func (m *Manager[T, I]) Add() {
	var values I
	if m.opts.Blank != nil {
		values = m.opts.Blank()
	}
	m.state = m.state.openForm(0, values)
}

func (m *Manager[T, I]) Edit(item T) {
	var values I
	if m.opts.InputOf != nil {
		values = m.opts.InputOf(item)
	}
	m.state = m.state.openForm(item.Key(), values)
}

// Change edits the open form's values in place.
func (m *Manager[T, I]) Change(update func(*I)) error {
	if m.state.Form == nil {
		return ErrNoForm
	}
	m.state = m.state.withForm(func(f *Form[I]) { update(&f.Values) })
	return nil
}

// SelectFile checks the picked image against the upload rules before keeping it.
func (m *Manager[T, I]) SelectFile(name string, data []byte) error {
	if m.state.Form == nil {
		return ErrNoForm
	}
	contentType := mimetype.Detect(data).String()
	result := validation.ValidateForm(validation.Record{
		"size":        int64(len(data)),
		"contentType": contentType,
		"type":        m.opts.UploadKind,
	}, validation.UploadSchema(m.opts.MaxUploadBytes))
	if !result.IsValid {
		m.state = m.state.formInvalid(result.FieldErrors)
		return services.ErrFileUpload(result.Errors[0]).WithDetail("fields", result.FieldErrors)
	}
	m.state = m.state.withForm(func(f *Form[I]) {
		f.File = &File{Name: name, ContentType: contentType, Data: data}
		delete(f.FieldErrors, "imageUrl")
	})
	return nil
}

// Save validates, uploads a picked file, then creates or updates. Every
// failure leaves the form open.
func (m *Manager[T, I]) Save(ctx context.Context) error {
	form := m.state.Form
	if form == nil {
		return ErrNoForm
	}
	writer, ok := m.backend.(Writer[T, I])
	if !ok {
		return ErrReadOnly
	}

	values := form.Values
	if m.opts.Validate != nil {
		candidate := values
		if form.File != nil && m.opts.AttachFile != nil {
			candidate = m.opts.AttachFile(candidate, pendingUpload)
		}
		if result := m.opts.Validate(candidate); !result.IsValid {
			m.state = m.state.formInvalid(result.FieldErrors)
			return ErrInvalidForm
		}
	}

	if form.File != nil && m.opts.Uploader != nil {
		stored, err := m.opts.Uploader.Upload(ctx, m.opts.UploadKind, form.File.Name, form.File.Data)
		if err != nil {
			m.state = m.state.formFailed(err)
			return err
		}
		if m.opts.AttachFile != nil {
			values = m.opts.AttachFile(values, stored.URL)
		}
		m.state = m.state.fileUploaded(values)
	}

	var (
		item T
		err  error
	)
	if form.Editing() {
		item, err = writer.Update(ctx, form.EditingID, values)
	} else {
		item, err = writer.Create(ctx, values)
	}
	if err != nil {
		m.state = m.state.formFailed(err)
		return err
	}
	verb := "created"
	if form.Editing() {
		verb = "updated"
	}
	m.state = m.state.saved(item, !form.Editing(), fmt.Sprintf("%s %s", m.opts.Name, verb))
	return nil
}

func (m *Manager[T, I]) CloseForm() {
	m.state = m.state.closeForm()
}

func (m *Manager[T, I]) RequestDelete(item T) {
	m.state = m.state.requestDelete(item)
}

func (m *Manager[T, I]) ConfirmDelete(ctx context.Context) error {
	pending := m.state.PendingDelete
	if pending == nil {
		return ErrNoPendingDelete
	}
	id := (*pending).Key()
	if err := m.backend.Delete(ctx, id); err != nil {
		m.state = m.state.deleteFailed(err)
		return err
	}
	m.state = m.state.deleted(id, m.opts.Name+" deleted")
	return nil
}

func (m *Manager[T, I]) CancelDelete() {
	m.state = m.state.cancelDelete()
}

// Apply runs a single-record action such as marking a message read and
// replaces the record with the result.
func (m *Manager[T, I]) Apply(ctx context.Context, action func(context.Context) (T, error)) error {
	item, err := action(ctx)
	if err != nil {
		m.state = m.state.notifyError(err)
		return err
	}
	m.state = m.state.replaced(item)
	return nil
}

func (m *Manager[T, I]) Dismiss(id int) {
	m.state = m.state.dismiss(id)
}

// Find returns the listed item with the given id.
func (m *Manager[T, I]) Find(id int64) (T, bool) {
	for _, item := range m.state.Items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
