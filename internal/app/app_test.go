package app

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_tracker/internal/config"
	"task_tracker/internal/middleware"
	"task_tracker/internal/session"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.GRPC.Address = "127.0.0.1:0"
	return cfg
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"memory", config.StorageConfig{Driver: config.DriverMemory}},
		{"sql sqlite", config.StorageConfig{Driver: config.DriverSQL, Dialect: config.DialectSQLite, DSN: filepath.Join(dir, "sql.db")}},
		{"gorm sqlite", config.StorageConfig{Driver: config.DriverGORM, Dialect: config.DialectSQLite, DSN: filepath.Join(dir, "gorm.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, closeFn, err := OpenStorage(ctx, tt.cfg)
			require.NoError(t, err)
			require.NoError(t, storageProbe(s)(ctx))
			tasks, err := s.GetTasks(ctx)
			require.NoError(t, err)
			assert.Empty(t, tasks)
			require.NoError(t, closeFn())
		})
	}

	_, _, err := OpenStorage(context.Background(), config.StorageConfig{Driver: "cassandra"})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestHandlerServesAPI(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	body := []byte(`{"name":"Mia","email":"m@x.com","password":"secret1","role":"manager"}`)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestSweepsReclaimExpiredEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewMemoryStore()
	require.NoError(t, sessions.Save(ctx, &session.Session{ID: "gone", ExpiresAt: time.Now().Add(-time.Second)}))
	require.NoError(t, sessions.Save(ctx, &session.Session{ID: "kept", ExpiresAt: time.Now().Add(time.Hour)}))
	replays := middleware.NewMemoryCache()
	replays.SetBytes(ctx, "gone", []byte("{}"), -time.Second)

	done := make(chan struct{})
	go func() {
		runSweeps(ctx, 5*time.Millisecond, []sweeper{sessions, replays})
		close(done)
	}()

	require.Eventually(t, func() bool {
		return sessions.Len() == 1 && replays.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestNewSweepsOnlyMemoryStores(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.Len(t, a.sweepers, 2)
}

func TestNewFailsOnBadStorage(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = "cassandra"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTP.Address = freeAddr(t)
	cfg.GRPC.Address = freeAddr(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + cfg.HTTP.Address + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
