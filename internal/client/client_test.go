package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"devfolio-backend-go/internal/client"
	"devfolio-backend-go/internal/config"
	"devfolio-backend-go/internal/db"
	httpapi "devfolio-backend-go/internal/http"
	"devfolio-backend-go/internal/manager"
	"devfolio-backend-go/internal/migrations"
	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/validation"
	"devfolio-backend-go/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

const adminPassword = "correct horse battery"

func newAPI(t *testing.T) *client.Client {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	fsys, err := schema.For("sqlite3")
	require.NoError(t, err)
	require.NoError(t, migrations.Apply(ctx, database, fsys))

	hash, err := services.TokenService{}.HashPassword(adminPassword)
	require.NoError(t, err)
	cfg := config.Config{
		AppEnv:                   "test",
		SessionSecret:            "client-test-secret",
		SessionIssuer:            "devfolio",
		SessionTTLSeconds:        3600,
		AdminEmail:               "owner@example.com",
		AdminPasswordHash:        hash,
		AdminExternalID:          "local-admin",
		UploadsRoot:              t.TempDir(),
		UploadMaxBytes:           1 << 20,
		ContactRateLimit:         100,
		ContactRateWindowSeconds: 600,
	}
	server := httpapi.NewServer(database, cfg, services.NewMetricsHub())
	require.NoError(t, server.Media.EnsureDirs())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return client.New(ts.URL, "")
}

func TestErrorsDecodeIntoTaxonomy(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()

	_, err := api.Messages().List(ctx)
	require.Error(t, err)
	svcErr := services.AsServiceError(err)
	assert.Equal(t, services.KindAuthentication, svcErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, svcErr.Status)
	assert.False(t, svcErr.Retryable())

	err = api.Login(ctx, "owner@example.com", "nope")
	assert.Equal(t, services.KindAuthentication, services.AsServiceError(err).Kind)

	_, err = api.Messages().Submit(ctx, models.ContactInput{Name: "Jo", Email: "jo@x.com", Message: "short"})
	svcErr = services.AsServiceError(err)
	assert.Equal(t, services.KindValidation, svcErr.Kind)
	fields, ok := svcErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Message must be at least 10 characters", fields["message"])
}

func TestUnreachableServerIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err := client.New(url, "").Projects().List(context.Background())
	require.Error(t, err)
	assert.True(t, services.AsServiceError(err).Retryable())
}

func TestProjectManagerOverHTTP(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	require.NoError(t, api.Login(ctx, "owner@example.com", adminPassword))

	projects := manager.New[models.Project, models.ProjectInput](api.Projects(), manager.Options[models.Project, models.ProjectInput]{
		Name:     "Project",
		InputOf:  models.Project.Input,
		Validate: validation.ValidateProject,
		Uploader: api,
		AttachFile: func(in models.ProjectInput, url string) models.ProjectInput {
			in.ImageURL = url
			return in
		},
		UploadKind: "project",
	})
	require.NoError(t, projects.Mount(ctx))
	assert.Empty(t, projects.Snapshot().Items)

	projects.Add()
	require.NoError(t, projects.Change(func(in *models.ProjectInput) {
		in.Title = "Portfolio"
		in.Description = "Personal site and CMS backend"
		in.TechStack = models.StringList{"Go", "SQLite"}
	}))
	require.NoError(t, projects.SelectFile("cover.png", pngBytes))
	require.NoError(t, projects.Save(ctx))

	snap := projects.Snapshot()
	require.Len(t, snap.Items, 1)
	created := snap.Items[0]
	assert.Contains(t, created.ImageURL, "/uploads/projects/cover-")

	projects.Edit(created)
	require.NoError(t, projects.Change(func(in *models.ProjectInput) { in.Featured = true }))
	require.NoError(t, projects.Save(ctx))
	assert.True(t, projects.Snapshot().Items[0].Featured)

	fetched, err := api.Projects().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Featured)
	assert.Nil(t, fetched.GithubURL)

	projects.RequestDelete(created)
	require.NoError(t, projects.ConfirmDelete(ctx))
	assert.Empty(t, projects.Snapshot().Items)

	err = api.Projects().Delete(ctx, created.ID)
	assert.Equal(t, services.KindNotFound, services.AsServiceError(err).Kind)

	result, err := api.PruneOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Cleaned)
}

func TestMessageManagerOverHTTP(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	_, err := api.Messages().Submit(ctx, models.ContactInput{Name: "Jo", Email: "jo@x.com", Message: "Hello, nice portfolio!"})
	require.NoError(t, err)
	require.NoError(t, api.Login(ctx, "owner@example.com", adminPassword))

	messages := manager.New[models.ContactMessage, models.ContactPatch](api.Messages(), manager.Options[models.ContactMessage, models.ContactPatch]{Name: "Message"})
	require.NoError(t, messages.Mount(ctx))
	items := messages.Snapshot().Items
	require.Len(t, items, 1)
	assert.False(t, items[0].Read)

	id := items[0].ID
	require.NoError(t, messages.Apply(ctx, func(ctx context.Context) (models.ContactMessage, error) {
		return api.Messages().MarkRead(ctx, id, true)
	}))
	assert.True(t, messages.Snapshot().Items[0].Read)

	stats, err := api.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Messages)
	assert.Zero(t, stats.UnreadMessages)
	assert.Equal(t, 1, stats.Admins)

	admins, err := api.Admins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "local-admin", admins[0].ExternalID)

	messages.RequestDelete(items[0])
	require.NoError(t, messages.ConfirmDelete(ctx))
	assert.Empty(t, messages.Snapshot().Items)
}
