package store

import (
	"context"
	"strings"

	"devfolio-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const adminColumns = `id, external_id, email, name, role, created_at, updated_at`

// Admins holds the identities allowed into the admin surface.
type Admins struct {
	db *sqlx.DB
}

func (a *Admins) List(ctx context.Context) ([]models.AdminIdentity, error) {
	items := []models.AdminIdentity{}
	if err := a.db.SelectContext(ctx, &items, `SELECT `+adminColumns+` FROM admins ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, storageError(ctx, "admins.list", 0, err)
	}
	return items, nil
}

func (a *Admins) FindByExternalID(ctx context.Context, externalID string) (*models.AdminIdentity, error) {
	return getOne[models.AdminIdentity](ctx, a.db, "admins.find", 0, `SELECT `+adminColumns+` FROM admins WHERE external_id = ?`, externalID)
}

// Upsert inserts the identity or refreshes its profile fields when the external id already exists.
func (a *Admins) Upsert(ctx context.Context, admin models.AdminIdentity) (*models.AdminIdentity, error) {
	role := admin.Role
	if role == "" {
		role = models.RoleAdmin
	}
	at := now()
	var id int64
	err := a.db.GetContext(ctx, &id, a.db.Rebind(`
INSERT INTO admins (external_id, email, name, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (external_id) DO UPDATE SET email = excluded.email, name = excluded.name, updated_at = excluded.updated_at
RETURNING id`),
		admin.ExternalID, strings.ToLower(strings.TrimSpace(admin.Email)), strings.TrimSpace(admin.Name), role, at, at)
	if err != nil {
		return nil, storageError(ctx, "admins.upsert", 0, err)
	}
	return getOne[models.AdminIdentity](ctx, a.db, "admins.get", id, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
}

func (a *Admins) DeleteByExternalID(ctx context.Context, externalID string) (bool, error) {
	result, err := a.db.ExecContext(ctx, a.db.Rebind(`DELETE FROM admins WHERE external_id = ?`), externalID)
	if err != nil {
		return false, storageError(ctx, "admins.delete", 0, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError(ctx, "admins.delete", 0, err)
	}
	return affected > 0, nil
}

func (a *Admins) Count(ctx context.Context) (int, error) {
	var count int
	if err := a.db.GetContext(ctx, &count, `SELECT count(*) FROM admins`); err != nil {
		return 0, storageError(ctx, "admins.count", 0, err)
	}
	return count, nil
}
