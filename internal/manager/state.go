// Package manager is the list, form and delete orchestration shared by every
// admin-managed resource. State lives in a Snapshot value; the functions in
// this file are pure transitions over it and never touch the network.
package manager

import (
	"devfolio-backend-go/internal/services"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Entity is anything the manager can key in its local list.
type Entity interface {
	Key() int64
}

// Notice is a transient, dismissible notification.
type Notice struct {
	ID        int    `json:"id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// File is an image picked in the form but not yet uploaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Form[I any] struct {
	// EditingID is zero while creating.
	EditingID   int64
	Values      I
	File        *File
	FieldErrors map[string]string
	Error       string
}

func (f Form[I]) Editing() bool { return f.EditingID != 0 }

type Snapshot[T Entity, I any] struct {
	Status        Status
	Items         []T
	Form          *Form[I]
	PendingDelete *T
	Notices       []Notice
	noticeSeq     int
}

func (s Snapshot[T, I]) notify(level Level, message string, retryable bool) Snapshot[T, I] {
	s.noticeSeq++
	notices := make([]Notice, 0, len(s.Notices)+1)
	notices = append(notices, s.Notices...)
	s.Notices = append(notices, Notice{ID: s.noticeSeq, Level: level, Message: message, Retryable: retryable})
	return s
}

func (s Snapshot[T, I]) notifyError(err error) Snapshot[T, I] {
	svcErr := services.AsServiceError(err)
	return s.notify(LevelError, svcErr.Message, svcErr.Retryable())
}

func (s Snapshot[T, I]) loading() Snapshot[T, I] {
	s.Status = StatusLoading
	return s
}

func (s Snapshot[T, I]) loaded(items []T) Snapshot[T, I] {
	s.Status = StatusIdle
	s.Items = append([]T(nil), items...)
	return s
}

// loadFailed keeps whatever list was already shown; a refresh retries.
func (s Snapshot[T, I]) loadFailed(err error) Snapshot[T, I] {
	s.Status = StatusError
	return s.notifyError(err)
}

func (s Snapshot[T, I]) openForm(id int64, values I) Snapshot[T, I] {
	s.Form = &Form[I]{EditingID: id, Values: values, FieldErrors: map[string]string{}}
	return s
}

func (s Snapshot[T, I]) withForm(update func(*Form[I])) Snapshot[T, I] {
	if s.Form == nil {
		return s
	}
	form := *s.Form
	form.FieldErrors = make(map[string]string, len(s.Form.FieldErrors))
	for field, message := range s.Form.FieldErrors {
		form.FieldErrors[field] = message
	}
	update(&form)
	s.Form = &form
	return s
}

func (s Snapshot[T, I]) formInvalid(fieldErrors map[string]string) Snapshot[T, I] {
	return s.withForm(func(f *Form[I]) {
		f.FieldErrors = fieldErrors
		f.Error = ""
	})
}

func (s Snapshot[T, I]) formFailed(err error) Snapshot[T, I] {
	svcErr := services.AsServiceError(err)
	s = s.withForm(func(f *Form[I]) {
		f.Error = svcErr.Message
		if fields, ok := svcErr.Details["fields"].(map[string]string); ok {
			f.FieldErrors = fields
		}
	})
	return s.notifyError(err)
}

// fileUploaded attaches the stored URL and forgets the picked file so a retry
// after a failed write does not upload it twice.
func (s Snapshot[T, I]) fileUploaded(values I) Snapshot[T, I] {
	return s.withForm(func(f *Form[I]) {
		f.Values = values
		f.File = nil
	})
}

// saved merges the returned entity: prepended when created, replaced in place when updated.
func (s Snapshot[T, I]) saved(item T, created bool, message string) Snapshot[T, I] {
	if created {
		s.Items = append([]T{item}, s.Items...)
	} else {
		s = s.replaced(item)
	}
	s.Form = nil
	return s.notify(LevelSuccess, message, false)
}

func (s Snapshot[T, I]) replaced(item T) Snapshot[T, I] {
	items := make([]T, len(s.Items))
	copy(items, s.Items)
	for i := range items {
		if items[i].Key() == item.Key() {
			items[i] = item
		}
	}
	s.Items = items
	return s
}

func (s Snapshot[T, I]) closeForm() Snapshot[T, I] {
	s.Form = nil
	return s
}

func (s Snapshot[T, I]) requestDelete(item T) Snapshot[T, I] {
	s.PendingDelete = &item
	return s
}

func (s Snapshot[T, I]) cancelDelete() Snapshot[T, I] {
	s.PendingDelete = nil
	return s
}

func (s Snapshot[T, I]) deleted(id int64, message string) Snapshot[T, I] {
	items := make([]T, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Key() != id {
			items = append(items, item)
		}
	}
	s.Items = items
	s.PendingDelete = nil
	return s.notify(LevelSuccess, message, false)
}

// deleteFailed leaves the list untouched.
func (s Snapshot[T, I]) deleteFailed(err error) Snapshot[T, I] {
	s.PendingDelete = nil
	return s.notifyError(err)
}

func (s Snapshot[T, I]) dismiss(id int) Snapshot[T, I] {
	notices := make([]Notice, 0, len(s.Notices))
	for _, notice := range s.Notices {
		if notice.ID != id {
			notices = append(notices, notice)
		}
	}
	s.Notices = notices
	return s
}
