package manager

import (
	"context"
	"errors"
	"testing"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fakeProjects struct {
	items     []models.Project
	nextID    int64
	listErr   error
	writeErr  error
	deleteErr error
	calls     []string
}

func (f *fakeProjects) List(context.Context) ([]models.Project, error) {
	f.calls = append(f.calls, "list")
	return f.items, f.listErr
}

func (f *fakeProjects) Create(_ context.Context, in models.ProjectInput) (models.Project, error) {
	f.calls = append(f.calls, "create")
	if f.writeErr != nil {
		return models.Project{}, f.writeErr
	}
	f.nextID++
	return models.Project{ID: f.nextID, Title: in.Title, Description: in.Description, TechStack: in.TechStack, ImageURL: in.ImageURL}, nil
}

func (f *fakeProjects) Update(_ context.Context, id int64, in models.ProjectInput) (models.Project, error) {
	f.calls = append(f.calls, "update")
	if f.writeErr != nil {
		return models.Project{}, f.writeErr
	}
	return models.Project{ID: id, Title: in.Title, Description: in.Description, TechStack: in.TechStack, ImageURL: in.ImageURL}, nil
}

func (f *fakeProjects) Delete(context.Context, int64) error {
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

type fakeUploader struct {
	err   error
	calls int
}

func (u *fakeUploader) Upload(_ context.Context, kind, filename string, _ []byte) (services.StoredFile, error) {
	u.calls++
	if u.err != nil {
		return services.StoredFile{}, u.err
	}
	return services.StoredFile{URL: "/uploads/projects/" + filename}, nil
}

func projectOptions(uploader Uploader) Options[models.Project, models.ProjectInput] {
	return Options[models.Project, models.ProjectInput]{
		Name:     "Project",
		Blank:    func() models.ProjectInput { return models.ProjectInput{TechStack: models.StringList{}} },
		InputOf:  models.Project.Input,
		Validate: validation.ValidateProject,
		Uploader: uploader,
		AttachFile: func(in models.ProjectInput, url string) models.ProjectInput {
			in.ImageURL = url
			return in
		},
		UploadKind: "project",
	}
}

func validInput(in *models.ProjectInput) {
	in.Title = "Portfolio"
	in.Description = "Personal site and CMS backend"
	in.TechStack = models.StringList{"Go"}
}

func existing(id int64, title string) models.Project {
	return models.Project{ID: id, Title: title, Description: "An existing project entry", TechStack: models.StringList{"Go"}, ImageURL: "/uploads/projects/x.png"}
}

func TestMountLoadsList(t *testing.T) {
	backend := &fakeProjects{items: []models.Project{existing(1, "One")}}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(nil))
	require.NoError(t, m.Mount(context.Background()))
	snap := m.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Len(t, snap.Items, 1)
}

func TestMountFailureIsRecoverable(t *testing.T) {
	backend := &fakeProjects{listErr: services.ErrStorage("Database error", errors.New("down"))}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(nil))
	require.Error(t, m.Mount(context.Background()))
	snap := m.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, LevelError, snap.Notices[0].Level)
	assert.True(t, snap.Notices[0].Retryable)

	backend.listErr = nil
	backend.items = []models.Project{existing(1, "One")}
	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, StatusIdle, m.Snapshot().Status)
	assert.Len(t, m.Snapshot().Items, 1)

	m.Dismiss(snap.Notices[0].ID)
	assert.Empty(t, m.Snapshot().Notices)
}

func TestSaveInvalidFormMakesNoCalls(t *testing.T) {
	backend := &fakeProjects{}
	uploader := &fakeUploader{}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(uploader))
	m.Add()
	require.NoError(t, m.Change(func(in *models.ProjectInput) { in.Title = "ab" }))

	err := m.Save(context.Background())
	assert.ErrorIs(t, err, ErrInvalidForm)
	snap := m.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Contains(t, snap.Form.FieldErrors, "title")
	assert.Contains(t, snap.Form.FieldErrors, "imageUrl")
	assert.Empty(t, backend.calls)
	assert.Zero(t, uploader.calls)
}

func TestSaveUploadsThenCreatesAndPrepends(t *testing.T) {
	backend := &fakeProjects{items: []models.Project{existing(7, "Old")}, nextID: 7}
	uploader := &fakeUploader{}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(uploader))
	require.NoError(t, m.Mount(context.Background()))

	m.Add()
	require.NoError(t, m.Change(validInput))
	require.NoError(t, m.SelectFile("shot.png", pngBytes))
	require.NoError(t, m.Save(context.Background()))

	snap := m.Snapshot()
	assert.Nil(t, snap.Form)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "Portfolio", snap.Items[0].Title)
	assert.Equal(t, "/uploads/projects/shot.png", snap.Items[0].ImageURL)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, []string{"list", "create"}, backend.calls)
	require.NotEmpty(t, snap.Notices)
	assert.Equal(t, "Project created", snap.Notices[len(snap.Notices)-1].Message)
}

func TestUploadFailureHaltsSave(t *testing.T) {
	backend := &fakeProjects{}
	uploader := &fakeUploader{err: services.ErrFileUpload("File is too large")}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(uploader))
	m.Add()
	require.NoError(t, m.Change(validInput))
	require.NoError(t, m.SelectFile("shot.png", pngBytes))

	require.Error(t, m.Save(context.Background()))
	snap := m.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Equal(t, "File is too large", snap.Form.Error)
	assert.NotNil(t, snap.Form.File)
	assert.Empty(t, backend.calls)
}

func TestWriteFailureKeepsUploadedFile(t *testing.T) {
	backend := &fakeProjects{writeErr: services.ErrStorage("Database error", nil)}
	uploader := &fakeUploader{}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(uploader))
	m.Add()
	require.NoError(t, m.Change(validInput))
	require.NoError(t, m.SelectFile("shot.png", pngBytes))

	require.Error(t, m.Save(context.Background()))
	snap := m.Snapshot()
	require.NotNil(t, snap.Form)
	assert.Nil(t, snap.Form.File)
	assert.Equal(t, "/uploads/projects/shot.png", snap.Form.Values.ImageURL)

	backend.writeErr = nil
	require.NoError(t, m.Save(context.Background()))
	assert.Equal(t, 1, uploader.calls)
}

func TestSelectFileRejectsNonImages(t *testing.T) {
	m := New[models.Project, models.ProjectInput](&fakeProjects{}, projectOptions(&fakeUploader{}))
	assert.ErrorIs(t, m.SelectFile("a.png", pngBytes), ErrNoForm)

	m.Add()
	err := m.SelectFile("notes.png", []byte("plain text pretending to be an image"))
	require.Error(t, err)
	assert.Equal(t, services.KindFileUpload, services.AsServiceError(err).Kind)
	assert.Nil(t, m.Snapshot().Form.File)
	assert.Contains(t, m.Snapshot().Form.FieldErrors, "contentType")
}

func TestEditReplacesInPlace(t *testing.T) {
	backend := &fakeProjects{items: []models.Project{existing(1, "One"), existing(2, "Two")}}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(nil))
	require.NoError(t, m.Mount(context.Background()))

	item, ok := m.Find(2)
	require.True(t, ok)
	m.Edit(item)
	snap := m.Snapshot()
	require.NotNil(t, snap.Form)
	assert.True(t, snap.Form.Editing())
	assert.Equal(t, "Two", snap.Form.Values.Title)

	require.NoError(t, m.Change(func(in *models.ProjectInput) { in.Title = "Two, revised" }))
	require.NoError(t, m.Save(context.Background()))
	snap = m.Snapshot()
	assert.Equal(t, "Two, revised", snap.Items[1].Title)
	assert.Equal(t, "One", snap.Items[0].Title)
	assert.Contains(t, backend.calls, "update")
}

func TestSnapshotsAreIndependent(t *testing.T) {
	backend := &fakeProjects{items: []models.Project{existing(1, "One")}}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(nil))
	require.NoError(t, m.Mount(context.Background()))
	m.Edit(backend.items[0])
	before := m.Snapshot()

	require.NoError(t, m.Change(func(in *models.ProjectInput) { in.Title = "Changed" }))
	require.NoError(t, m.Save(context.Background()))
	assert.Equal(t, "One", before.Items[0].Title)
	assert.Equal(t, "One", before.Form.Values.Title)
}

func TestDeleteFlow(t *testing.T) {
	backend := &fakeProjects{items: []models.Project{existing(1, "One"), existing(2, "Two")}}
	m := New[models.Project, models.ProjectInput](backend, projectOptions(nil))
	require.NoError(t, m.Mount(context.Background()))

	assert.ErrorIs(t, m.ConfirmDelete(context.Background()), ErrNoPendingDelete)

	m.RequestDelete(backend.items[0])
	m.CancelDelete()
	assert.Nil(t, m.Snapshot().PendingDelete)
	assert.NotContains(t, backend.calls, "delete")

	backend.deleteErr = services.ErrNotFound("Project not found")
	m.RequestDelete(backend.items[0])
	require.Error(t, m.ConfirmDelete(context.Background()))
	assert.Len(t, m.Snapshot().Items, 2)

	backend.deleteErr = nil
	m.RequestDelete(backend.items[0])
	require.NoError(t, m.ConfirmDelete(context.Background()))
	snap := m.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(2), snap.Items[0].ID)
	assert.Nil(t, snap.PendingDelete)
}

type fakeMessages struct {
	items []models.ContactMessage
}

func (f *fakeMessages) List(context.Context) ([]models.ContactMessage, error) { return f.items, nil }
func (f *fakeMessages) Delete(context.Context, int64) error                   { return nil }

func TestReadOnlyResourceAndApply(t *testing.T) {
	backend := &fakeMessages{items: []models.ContactMessage{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bo"}}}
	m := New[models.ContactMessage, models.ContactPatch](backend, Options[models.ContactMessage, models.ContactPatch]{Name: "Message"})
	require.NoError(t, m.Mount(context.Background()))

	m.Add()
	assert.ErrorIs(t, m.Save(context.Background()), ErrReadOnly)
	m.CloseForm()

	err := m.Apply(context.Background(), func(context.Context) (models.ContactMessage, error) {
		return models.ContactMessage{ID: 2, Name: "Bo", Read: true}, nil
	})
	require.NoError(t, err)
	assert.False(t, m.Snapshot().Items[0].Read)
	assert.True(t, m.Snapshot().Items[1].Read)

	err = m.Apply(context.Background(), func(context.Context) (models.ContactMessage, error) {
		return models.ContactMessage{}, services.ErrNotFound("Message not found")
	})
	require.Error(t, err)
	notices := m.Snapshot().Notices
	require.NotEmpty(t, notices)
	assert.False(t, notices[len(notices)-1].Retryable)
}
