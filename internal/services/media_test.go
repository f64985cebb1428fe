package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestStoredName(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	name := StoredName("../../My Résumé Photo!!.PNG", at)
	assert.Regexp(t, regexp.MustCompile(`^myrsumphoto-1700000000000-[0-9a-f]{8}\.png$`), name)
	assert.NotContains(t, name, "/")

	assert.Regexp(t, `^file-1700000000000-[0-9a-f]{8}$`, StoredName("...", at))
	assert.NotEqual(t, StoredName("a.png", at), StoredName("a.png", at))
}

func TestUploadDir(t *testing.T) {
	dir, ok := UploadDir("project")
	assert.True(t, ok)
	assert.Equal(t, DirProjects, dir)
	dir, ok = UploadDir("logo")
	assert.True(t, ok)
	assert.Equal(t, DirCompanies, dir)
	_, ok = UploadDir("avatar")
	assert.False(t, ok)
}

func TestReadSniffsContentType(t *testing.T) {
	media := NewMediaStore(t.TempDir(), 1024)
	upload, err := media.Read("photo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, int64(len(pngHeader)), upload.Size())

	_, err = media.Read("empty.png", bytes.NewReader(nil))
	require.Error(t, err)
	assert.Equal(t, KindFileUpload, AsServiceError(err).Kind)
}

func TestReadStopsPastLimit(t *testing.T) {
	media := NewMediaStore(t.TempDir(), 10)
	upload, err := media.Read("big.bin", strings.NewReader(strings.Repeat("x", 100)))
	require.NoError(t, err)
	assert.Equal(t, int64(11), upload.Size())
}

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	media := NewMediaStore(root, 1024)
	stored, err := media.Save(context.Background(), DirProjects, Upload{Filename: "Shot.png", ContentType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.URL, "/uploads/projects/shot-"))
	assert.Equal(t, int64(len(pngHeader)), stored.Size)
	assert.Len(t, stored.SHA256, 64)
	_, err = os.Stat(stored.Path)
	require.NoError(t, err)

	assert.True(t, media.DeleteStoredFile(stored.URL))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, media.DeleteStoredFile(stored.URL))
}

func TestSaveRejectsUnknownDir(t *testing.T) {
	media := NewMediaStore(t.TempDir(), 1024)
	_, err := media.Save(context.Background(), "../etc", Upload{Filename: "x.png", Data: pngHeader})
	require.Error(t, err)
}

type rejectScanner struct{}

func (rejectScanner) Scan(context.Context, io.Reader) error {
	return ErrFileUpload("File was rejected by the virus scanner")
}

type brokenScanner struct{}

func (brokenScanner) Scan(context.Context, io.Reader) error { return errors.New("dial tcp: refused") }

func TestSaveRunsScannerFirst(t *testing.T) {
	root := t.TempDir()
	media := NewMediaStore(root, 1024)
	media.Scanner = rejectScanner{}
	_, err := media.Save(context.Background(), DirCompanies, Upload{Filename: "logo.png", Data: pngHeader})
	require.Error(t, err)
	assert.Equal(t, KindFileUpload, AsServiceError(err).Kind)
	entries, _ := os.ReadDir(filepath.Join(root, DirCompanies))
	assert.Empty(t, entries)

	media.Scanner = brokenScanner{}
	_, err = media.Save(context.Background(), DirCompanies, Upload{Filename: "logo.png", Data: pngHeader})
	require.Error(t, err)
	assert.Equal(t, KindStorage, AsServiceError(err).Kind)
}

func TestDeleteStoredFileRefusesTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	require.NoError(t, os.MkdirAll(root, 0o755))
	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep"), 0o644))
	media := NewMediaStore(root, 1024)

	for _, url := range []string{
		"/uploads/../secret.txt",
		"/uploads/../../etc/passwd",
		"/uploads/projects/../../secret.txt",
		"/uploads/..\\secret.txt",
		"/etc/passwd",
		"/uploads/",
	} {
		assert.False(t, media.DeleteStoredFile(url), url)
	}
	_, err := os.Stat(secret)
	assert.NoError(t, err)
}

func TestDeleteStoredFileWarnsOnlyOnEscape(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	media := NewMediaStore(t.TempDir(), 1024)

	assert.False(t, media.Owns("https://cdn.example.com/shot.png"))
	assert.True(t, media.Owns("/uploads/projects/shot.png"))

	assert.False(t, media.DeleteStoredFile("https://cdn.example.com/shot.png"))
	assert.False(t, media.DeleteStoredFile("/images/shot.png"))
	assert.Empty(t, logs.String())

	assert.False(t, media.DeleteStoredFile("/uploads/../secret.txt"))
	assert.Contains(t, logs.String(), "refused to delete file outside uploads root")
}

func TestPruneOrphans(t *testing.T) {
	root := t.TempDir()
	media := NewMediaStore(root, 1024)
	dir := filepath.Join(root, DirProjects)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"keep.png", "orphan-1.png", "orphan-2.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	result := media.PruneOrphans([]string{"/uploads/projects/keep.png", "/uploads/companies/other.png"}, DirProjects)
	assert.Equal(t, 2, result.Cleaned)
	assert.Empty(t, result.Errors)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"keep.png", "nested"}, names)
}

func TestPruneOrphansMissingDir(t *testing.T) {
	media := NewMediaStore(t.TempDir(), 1024)
	result := media.PruneOrphans(nil, DirCompanies)
	assert.Zero(t, result.Cleaned)
	assert.Empty(t, result.Errors)
}

func TestDiskUsage(t *testing.T) {
	root := t.TempDir()
	media := NewMediaStore(root, 1024)
	require.NoError(t, media.EnsureDirs())
	require.NoError(t, os.WriteFile(filepath.Join(root, DirProjects, "a"), []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, DirCompanies, "b"), []byte("123"), 0o644))
	assert.Equal(t, int64(8), media.DiskUsage())
}
