// Package store is the persistence layer: one data-access type per resource,
// all sharing a single *sqlx.DB handle created at startup.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
)

type Store struct {
	DB          *sqlx.DB
	Projects    *Projects
	Experiences *Experiences
	Messages    *Messages
	Admins      *Admins
}

func New(db *sqlx.DB) *Store {
	return &Store{
		DB:          db,
		Projects:    &Projects{db: db},
		Experiences: &Experiences{db: db},
		Messages:    &Messages{db: db},
		Admins:      &Admins{db: db},
	}
}

// Counts returns the dashboard totals.
func (s *Store) Counts(ctx context.Context) (models.ContentCounts, error) {
	var counts models.ContentCounts
	err := s.DB.GetContext(ctx, &counts, s.DB.Rebind(`
SELECT
  (SELECT count(*) FROM projects) AS projects,
  (SELECT count(*) FROM projects WHERE featured = ?) AS featured_projects,
  (SELECT count(*) FROM experiences) AS experiences,
  (SELECT count(*) FROM contact_messages) AS messages,
  (SELECT count(*) FROM contact_messages WHERE read = ?) AS unread_messages
`), true, false)
	if err != nil {
		return counts, storageError(ctx, "counts", 0, err)
	}
	return counts, nil
}

// ReferencedUploads lists every stored file URL still referenced by a row.
func (s *Store) ReferencedUploads(ctx context.Context) ([]string, error) {
	images, err := s.Projects.ImageURLs(ctx)
	if err != nil {
		return nil, err
	}
	logos, err := s.Experiences.LogoURLs(ctx)
	if err != nil {
		return nil, err
	}
	return append(images, logos...), nil
}

// UploadReferenced reports whether any project image or company logo still points at url.
func (s *Store) UploadReferenced(ctx context.Context, url string) (bool, error) {
	var refs int
	err := s.DB.GetContext(ctx, &refs, s.DB.Rebind(`
SELECT
  (SELECT count(*) FROM projects WHERE image_url = ?) +
  (SELECT count(*) FROM experiences WHERE company_logo = ?)
`), url, url)
	if err != nil {
		return false, storageError(ctx, "uploads.referenced", 0, err)
	}
	return refs > 0, nil
}

func now() time.Time {
	return time.Now().UTC()
}

func getOne[T any](ctx context.Context, db *sqlx.DB, op string, id int64, query string, args ...any) (*T, error) {
	var row T
	if err := db.GetContext(ctx, &row, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(ctx, op, id, err)
	}
	return &row, nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return false, storageError(ctx, table+".delete", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError(ctx, table+".delete", id, err)
	}
	return affected > 0, nil
}

func nonEmpty(values []*string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		if value != nil && strings.TrimSpace(*value) != "" {
			items = append(items, *value)
		}
	}
	return items
}

// storageError logs the operation name and row id, never the bound values.
func storageError(ctx context.Context, op string, id int64, err error) error {
	attrs := []any{slog.String("op", op), slog.String("error", err.Error())}
	if id != 0 {
		attrs = append(attrs, slog.Int64("id", id))
	}
	slog.ErrorContext(ctx, "store query failed", attrs...)
	return services.ErrStorage("Database error", err)
}
