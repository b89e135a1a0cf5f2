package gormrepo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task_tracker/internal/repository"
	"task_tracker/internal/repository/repotest"
)

func TestStorageContract_SQLite(t *testing.T) {
	repotest.Run(t, func(t *testing.T, clock repository.Clock) repository.Storage {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
		db, err := Open(DialectSQLite, "file:gorm_"+name+"?mode=memory&cache=shared")
		require.NoError(t, err)
		t.Cleanup(func() { _ = Close(db) })
		return New(db, WithClock(clock))
	})
}

func TestStorageContract_Postgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	repotest.Run(t, func(t *testing.T, clock repository.Clock) repository.Storage {
		db, err := Open(DialectPostgres, dsn)
		require.NoError(t, err)
		require.NoError(t, db.Exec(`TRUNCATE complaints, tasks, users`).Error)
		t.Cleanup(func() { _ = Close(db) })
		return New(db, WithClock(clock))
	})
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open("oracle", "dsn")
	require.Error(t, err)
}

func TestOpen_ClosesPoolWhenMigrationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	closed := 0
	closeDB = func(db *gorm.DB) error {
		closed++
		return Close(db)
	}
	t.Cleanup(func() { closeDB = Close })

	_, err := Open(DialectSQLite, "file:"+path+"?mode=ro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto migrate")
	assert.Equal(t, 1, closed)
}
