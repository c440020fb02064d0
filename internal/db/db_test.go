package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintboard/internal/db"
)

func TestBootstrapIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.OpenAndBootstrap(db.Config{Workspace: dir})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, db.Bootstrap(conn))

	for _, table := range []string{"logs", "activities", "tasks", "task_history", "events"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	_, err = os.Stat(filepath.Join(dir, ".sprintboard", "sprintboard.db"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".sprintboard", "sprintboard.db"), db.Path(dir))
}

func TestForeignKeysEnforced(t *testing.T) {
	conn, err := db.OpenAndBootstrap(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`INSERT INTO activities(log_id,open,updated_at) VALUES ('missing',0,'2024-01-01T00:00:00Z')`)
	assert.Error(t, err)
}
