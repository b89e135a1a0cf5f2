package mongorepo

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"task_tracker/internal/repository"
	"task_tracker/internal/repository/repotest"
)

var dbSeq atomic.Int64

// TestStorageContract needs a reachable server; set MONGO_TEST_URI to run it.
func TestStorageContract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	repotest.Run(t, func(t *testing.T, clock repository.Clock) repository.Storage {
		db := client.Database(fmt.Sprintf("task_tracker_test_%d", dbSeq.Add(1)))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		s, err := New(ctx, db, WithClock(clock))
		require.NoError(t, err)
		return s
	})
}

func TestObjectID(t *testing.T) {
	_, ok := objectID("not-an-id")
	require.False(t, ok)
	_, ok = objectID("")
	require.False(t, ok)
	_, ok = objectID("65a000000000000000000000")
	require.True(t, ok)
}
