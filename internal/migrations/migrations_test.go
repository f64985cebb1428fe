package migrations

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyRunsInVersionOrderOnce(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"V10__seed.sql": {Data: []byte(`INSERT INTO notes (body) VALUES ('ten');`)},
		"V2__notes.sql": {Data: []byte(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);`)},
		"README.md":     {Data: []byte(`ignored`)},
		"V3__more.sql":  {Data: []byte(`INSERT INTO notes (body) VALUES ('three');`)},
	}

	require.NoError(t, Apply(ctx, db, fsys))
	require.NoError(t, Apply(ctx, db, fsys))

	var bodies []string
	require.NoError(t, db.Select(&bodies, `SELECT body FROM notes ORDER BY id`))
	assert.Equal(t, []string{"three", "ten"}, bodies)

	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM schema_migrations ORDER BY name`))
	assert.Equal(t, []string{"V10__seed.sql", "V2__notes.sql", "V3__more.sql"}, names)
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"V1__broken.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;`)},
	}
	err := Apply(context.Background(), db, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "V1__broken.sql")

	var count int
	require.NoError(t, db.Get(&count, `SELECT count(*) FROM schema_migrations`))
	assert.Zero(t, count)
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, "12", parseVersion("V12__add_index.sql"))
	assert.Equal(t, "", parseVersion("init.sql"))
	assert.Equal(t, "", parseVersion("Vbroken.sql"))
	n, ok := parseVersionNumber("V7__x.sql")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
}
