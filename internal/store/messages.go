package store

import (
	"context"

	"devfolio-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const MessageRead Column = "read"

const messageColumns = `id, name, email, message, read, created_at`

type Messages struct {
	db *sqlx.DB
}

func (m *Messages) List(ctx context.Context) ([]models.ContactMessage, error) {
	items := []models.ContactMessage{}
	err := m.db.SelectContext(ctx, &items, `SELECT `+messageColumns+` FROM contact_messages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageError(ctx, "contact_messages.list", 0, err)
	}
	return items, nil
}

func (m *Messages) Get(ctx context.Context, id int64) (*models.ContactMessage, error) {
	return getOne[models.ContactMessage](ctx, m.db, "contact_messages.get", id, `SELECT `+messageColumns+` FROM contact_messages WHERE id = ?`, id)
}

// Create stores a new message as unread.
func (m *Messages) Create(ctx context.Context, in models.ContactInput) (*models.ContactMessage, error) {
	in = in.Normalize()
	var id int64
	err := m.db.GetContext(ctx, &id, m.db.Rebind(`
INSERT INTO contact_messages (name, email, message, read, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`), in.Name, in.Email, in.Message, false, now())
	if err != nil {
		return nil, storageError(ctx, "contact_messages.create", 0, err)
	}
	return m.Get(ctx, id)
}

// Update only toggles the read flag. Messages have no updated_at column.
func (m *Messages) Update(ctx context.Context, id int64, patch models.ContactPatch) (*models.ContactMessage, error) {
	if patch.Empty() {
		return m.Get(ctx, id)
	}
	result, err := m.db.ExecContext(ctx, m.db.Rebind(`UPDATE contact_messages SET `+string(MessageRead)+` = ? WHERE id = ?`), *patch.Read, id)
	if err != nil {
		return nil, storageError(ctx, "contact_messages.update", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, nil
	}
	return m.Get(ctx, id)
}

func (m *Messages) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, m.db, "contact_messages", id)
}

func (m *Messages) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := m.db.GetContext(ctx, &count, m.db.Rebind(`SELECT count(*) FROM contact_messages WHERE read = ?`), false); err != nil {
		return 0, storageError(ctx, "contact_messages.count_unread", 0, err)
	}
	return count, nil
}
