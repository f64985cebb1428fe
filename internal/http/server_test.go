package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"devfolio-backend-go/internal/config"
	"devfolio-backend-go/internal/db"
	"devfolio-backend-go/internal/migrations"
	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	token   string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppEnv:                   "test",
		DatabaseDriver:           "sqlite3",
		SessionSecret:            "test-session-secret",
		SessionIssuer:            "devfolio",
		SessionTTLSeconds:        3600,
		AdminExternalID:          "local-admin",
		AdminEmailsRaw:           "owner@example.com",
		WebhookSecret:            "webhook-secret",
		UploadsRoot:              t.TempDir(),
		UploadMaxBytes:           1 << 20,
		RequestTimeoutSeconds:    5,
		CacheTTLSeconds:          60,
		ContactRateLimit:         100,
		ContactRateWindowSeconds: 600,
	}
}

func newTestEnv(t *testing.T, cfg config.Config, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	fsys, err := schema.For("sqlite3")
	require.NoError(t, err)
	require.NoError(t, migrations.Apply(ctx, database, fsys))

	server := NewServer(database, cfg, services.NewMetricsHub(), opts...)
	require.NoError(t, server.Media.EnsureDirs())

	admin, err := server.Store.Admins.Upsert(ctx, models.AdminIdentity{
		ExternalID: "user_admin",
		Email:      "owner@example.com",
		Name:       "Owner",
		Role:       models.RoleAdmin,
	})
	require.NoError(t, err)
	token, _, err := server.Tokens.CreateSessionToken(services.Identity{ExternalID: admin.ExternalID, Email: admin.Email})
	require.NoError(t, err)

	return &testEnv{server: server, handler: server.Router(), token: token}
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) admin(method, path string, body any) *httptest.ResponseRecorder {
	return e.do(method, path, body, e.token)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, rec.Body.String())
	var value T
	require.NoError(t, json.Unmarshal(env.Data, &value))
	return value
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	for _, path := range []string{"/api/projects", "/api/does-not-exist", "/healthz"} {
		rec := env.do(http.MethodGet, path, nil, "")
		h := rec.Header()
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"), path)
		assert.Equal(t, "DENY", h.Get("X-Frame-Options"), path)
		assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=", path)
		assert.Contains(t, h.Get("Content-Security-Policy"), "frame-ancestors 'none'", path)
		assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"), path)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	rec := env.do(http.MethodGet, "/api/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.NotEmpty(t, body.Error)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	rec := env.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[map[string]string](t, rec)
	assert.Equal(t, "ok", data["status"])
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewBufferString(`{"name":`))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Code)

	rec = env.do(http.MethodPost, "/api/contact", map[string]any{"name": "Ana", "extra": true}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Unknown field extra", body.Error)
}

func TestInvalidID(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	rec := env.do(http.MethodGet, "/api/projects/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Code)
}

func TestUploadsAreServedWithoutListing(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	stored, err := env.server.Media.Save(context.Background(), services.DirProjects, services.Upload{
		Filename: "shot.png", ContentType: "image/png", Data: pngBytes,
	})
	require.NoError(t, err)

	rec := env.do(http.MethodGet, stored.URL, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	rec = env.do(http.MethodGet, "/uploads/projects/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServerWithoutHub(t *testing.T) {
	server := NewServer(nil, testConfig(t), nil)
	require.NotNil(t, server.MetricsHub)
	assert.Zero(t, server.MetricsHub.Len())
}
