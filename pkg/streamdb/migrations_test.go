package streamdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyDatabase writes a streams table created outside the migration
// history, as an old install without schema_version would have.
func legacyDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := openDB(path)
	require.NoError(t, err)
	defer closeDB(db)

	require.NoError(t, db.Exec(`CREATE TABLE streams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nickname TEXT, protocol TEXT NOT NULL, username TEXT, password TEXT,
		hostname TEXT, port INTEGER, path TEXT, query TEXT, lastconnect INTEGER DEFAULT -1)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO streams (nickname, protocol, hostname, port, path, lastconnect)
		VALUES ('one', 'http', 'a.example', 80, '/1', -1), ('two', 'rtsp', 'b.example', 80, '/2', -1)`).Error)
	return path
}

func TestMigrationFailureAborts(t *testing.T) {
	path := legacyDatabase(t)

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigration)
	assert.Contains(t, err.Error(), "step 1")

	db, err := openDB(path)
	require.NoError(t, err)
	defer closeDB(db)
	v, err := currentVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 0, v, "failed step must not advance the version")
}

func TestRebuildRecoversLegacyRows(t *testing.T) {
	path := legacyDatabase(t)
	require.NoError(t, Rebuild(path))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), v)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Nickname)
	assert.EqualValues(t, 1, list[0].ListPosition, "list position is backfilled from id order")
	assert.EqualValues(t, 2, list[1].ListPosition)

	_, err = s.UpsertMedia(ctx, &list[0].ID, []MediaFile{{URI: "http://a.example/1", Track: 1}})
	assert.NoError(t, err, "media table exists after rebuild")
}

func TestNewerSchemaRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.db.Exec(`UPDATE schema_version SET version = 99`).Error)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrMigration)
}

func TestReopenIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), httpRecord("a", "/")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
