package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DirProjects  = "projects"
	DirCompanies = "companies"
)

// UploadDir maps the upload "type" form value to its storage directory.
func UploadDir(kind string) (string, bool) {
	switch kind {
	case "project":
		return DirProjects, true
	case "logo":
		return DirCompanies, true
	}
	return "", false
}

// Scanner inspects an upload before it is written to disk.
type Scanner interface {
	Scan(ctx context.Context, body io.Reader) error
}

// ClamdScanner streams uploads to a clamd daemon.
type ClamdScanner struct {
	Addr string
}

func (c ClamdScanner) Scan(ctx context.Context, body io.Reader) error {
	client := clamd.NewClamd(c.Addr)
	abort := make(chan bool)
	defer close(abort)
	results, err := client.ScanStream(body, abort)
	if err != nil {
		return WrapError(err, "scan upload")
	}
	for {
		select {
		case result, ok := <-results:
			if !ok {
				return nil
			}
			if result.Status != clamd.RES_OK {
				return ErrFileUpload("File was rejected by the virus scanner")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type StoredFile struct {
	URL         string `json:"imageUrl"`
	Path        string `json:"-"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
}

// Upload is a file read fully into memory and sniffed, ready to validate and save.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 { return int64(len(u.Data)) }

type PruneResult struct {
	Cleaned int      `json:"cleaned"`
	Errors  []string `json:"errors"`
}

// MediaStore owns every file under Root. Public URLs are PublicPrefix + "/" + dir + "/" + name.
type MediaStore struct {
	Root         string
	PublicPrefix string
	MaxBytes     int64
	Scanner      Scanner
}

func NewMediaStore(root string, maxBytes int64) *MediaStore {
	return &MediaStore{Root: root, PublicPrefix: "/uploads", MaxBytes: maxBytes}
}

func (m *MediaStore) EnsureDirs() error {
	for _, dir := range []string{DirProjects, DirCompanies} {
		if err := os.MkdirAll(filepath.Join(m.Root, dir), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// StoredName builds a collision-free lowercase file name that keeps only the
// alphanumeric part of the original base name and its extension.
func StoredName(original string, at time.Time) string {
	original = strings.ReplaceAll(original, "\\", "/")
	base := path.Base(original)
	ext := strings.ToLower(path.Ext(base))
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "file"
	}

	cleanExt := strings.Builder{}
	for _, r := range strings.TrimPrefix(ext, ".") {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			cleanExt.WriteRune(r)
		}
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	stored := fmt.Sprintf("%s-%d-%s", name, at.UnixMilli(), token)
	if cleanExt.Len() > 0 {
		stored += "." + cleanExt.String()
	}
	return stored
}

// Read buffers at most MaxBytes+1 bytes and sniffs the content type from the data itself.
func (m *MediaStore) Read(filename string, body io.Reader) (Upload, error) {
	limit := m.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return Upload{}, ErrFileUpload("Could not read uploaded file")
	}
	if len(data) == 0 {
		return Upload{}, ErrFileUpload("Uploaded file is empty")
	}
	return Upload{
		Filename:    filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// Save scans and writes the upload under dir and returns its public URL.
func (m *MediaStore) Save(ctx context.Context, dir string, upload Upload) (StoredFile, error) {
	if dir != DirProjects && dir != DirCompanies {
		return StoredFile{}, ErrFileUpload("Unknown upload directory")
	}
	if m.Scanner != nil {
		if err := m.Scanner.Scan(ctx, bytes.NewReader(upload.Data)); err != nil {
			var svcErr *ServiceError
			if errors.As(err, &svcErr) {
				return StoredFile{}, svcErr
			}
			slog.ErrorContext(ctx, "upload scan failed", "dir", dir, "error", err)
			return StoredFile{}, ErrStorage("Could not scan uploaded file", err)
		}
	}
	target := filepath.Join(m.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return StoredFile{}, ErrStorage("Could not prepare upload directory", err)
	}
	name := StoredName(upload.Filename, time.Now().UTC())
	fullPath := filepath.Join(target, name)

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		slog.ErrorContext(ctx, "upload write failed", "dir", dir, "error", err)
		return StoredFile{}, ErrStorage("Could not store uploaded file", err)
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), bytes.NewReader(upload.Data))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		slog.ErrorContext(ctx, "upload write failed", "dir", dir, "error", err)
		return StoredFile{}, ErrStorage("Could not store uploaded file", err)
	}
	return StoredFile{
		URL:         m.PublicPrefix + "/" + dir + "/" + name,
		Path:        fullPath,
		ContentType: upload.ContentType,
		Size:        size,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Resolve maps a public URL to a path under Root. It fails for anything that
// escapes Root after normalization.
func (m *MediaStore) Resolve(url string) (string, bool) {
	if !m.Owns(url) {
		return "", false
	}
	rel := strings.TrimPrefix(url, strings.TrimSuffix(m.PublicPrefix, "/")+"/")
	if rel == "" || strings.Contains(rel, "\\") || strings.ContainsRune(rel, 0) {
		return "", false
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", false
		}
	}
	root, err := filepath.Abs(m.Root)
	if err != nil {
		return "", false
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	within, err := filepath.Rel(root, full)
	if err != nil || within == "." || strings.HasPrefix(within, "..") || filepath.IsAbs(within) {
		return "", false
	}
	return full, true
}

// Owns reports whether url carries the public uploads prefix. External links
// such as a CDN image are not ours to delete.
func (m *MediaStore) Owns(url string) bool {
	return strings.HasPrefix(url, strings.TrimSuffix(m.PublicPrefix, "/")+"/")
}

// DeleteStoredFile removes the file behind url. It returns false for external
// URLs, for URLs escaping the uploads root, when the file is absent, or when
// removal fails. Only escape attempts are logged.
func (m *MediaStore) DeleteStoredFile(url string) bool {
	if !m.Owns(url) {
		return false
	}
	full, ok := m.Resolve(url)
	if !ok {
		slog.Warn("refused to delete file outside uploads root", "url", url)
		return false
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return false
	}
	if err := os.Remove(full); err != nil {
		slog.Error("delete stored file failed", "url", url, "error", err)
		return false
	}
	return true
}

// PruneOrphans deletes every file in dir whose public URL is not referenced.
// Per-file failures are collected and the sweep continues.
func (m *MediaStore) PruneOrphans(referenced []string, dir string) PruneResult {
	result := PruneResult{Errors: []string{}}
	keep := make(map[string]bool, len(referenced))
	for _, url := range referenced {
		keep[url] = true
	}
	base := filepath.Join(m.Root, dir)
	entries, err := os.ReadDir(base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Errors = append(result.Errors, dir+": "+err.Error())
		}
		return result
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		url := m.PublicPrefix + "/" + dir + "/" + entry.Name()
		if keep[url] {
			continue
		}
		if err := os.Remove(filepath.Join(base, entry.Name())); err != nil {
			result.Errors = append(result.Errors, entry.Name()+": "+err.Error())
			continue
		}
		result.Cleaned++
	}
	if result.Cleaned > 0 || len(result.Errors) > 0 {
		slog.Info("pruned orphaned uploads", "dir", dir, "cleaned", result.Cleaned, "errors", len(result.Errors))
	}
	return result
}

// DiskUsage is the total size in bytes of every stored upload.
func (m *MediaStore) DiskUsage() int64 {
	var total int64
	_ = filepath.WalkDir(m.Root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
