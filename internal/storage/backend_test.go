package storage_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tg-antijudi/internal/storage"
)

func newBackends(t *testing.T) map[string]storage.Backend {
	t.Helper()

	file, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	database, err := storage.NewDatabaseBackend(db)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]storage.Backend{
		"memory":   storage.NewMemoryBackend(),
		"file":     file,
		"database": database,
		"redis":    storage.NewRedisBackendWithClient(client, "test:"),
	}
}

func TestBackendLoadMissing(t *testing.T) {
	t.Parallel()
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			doc, err := backend.Load(t.Context(), storage.MutesCollection)
			require.NoError(t, err)
			assert.Empty(t, doc.Data)
			assert.Zero(t, doc.Version)
		})
	}
}

func TestBackendCommitAndVersioning(t *testing.T) {
	t.Parallel()
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			err := backend.Commit(ctx, []storage.Write{
				{Collection: storage.BansCollection, Data: []byte(`{"1":{}}`), Version: 0},
				{Collection: storage.MutesCollection, Data: []byte(`{}`), Version: 0},
			})
			require.NoError(t, err)

			doc, err := backend.Load(ctx, storage.BansCollection)
			require.NoError(t, err)
			assert.JSONEq(t, `{"1":{}}`, string(doc.Data))
			assert.Equal(t, int64(1), doc.Version)

			// stale version
			err = backend.Commit(ctx, []storage.Write{
				{Collection: storage.BansCollection, Data: []byte(`{}`), Version: 0},
			})
			require.ErrorIs(t, err, storage.ErrVersionConflict)

			err = backend.Commit(ctx, []storage.Write{
				{Collection: storage.BansCollection, Data: []byte(`{"2":{}}`), Version: 1},
			})
			require.NoError(t, err)

			doc, err = backend.Load(ctx, storage.BansCollection)
			require.NoError(t, err)
			assert.JSONEq(t, `{"2":{}}`, string(doc.Data))
			assert.Equal(t, int64(2), doc.Version)
		})
	}
}

func TestBackendCommitIsAllOrNothing(t *testing.T) {
	t.Parallel()
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			require.NoError(t, backend.Commit(ctx, []storage.Write{
				{Collection: storage.ViolationsCollection, Data: []byte(`{"a":1}`), Version: 0},
			}))

			// the second write is stale, so the first must not land either
			err := backend.Commit(ctx, []storage.Write{
				{Collection: storage.CleanMessagesCollection, Data: []byte(`{"b":2}`), Version: 0},
				{Collection: storage.ViolationsCollection, Data: []byte(`{"a":3}`), Version: 7},
			})
			require.ErrorIs(t, err, storage.ErrVersionConflict)

			clean, err := backend.Load(ctx, storage.CleanMessagesCollection)
			require.NoError(t, err)
			assert.Zero(t, clean.Version)

			violations, err := backend.Load(ctx, storage.ViolationsCollection)
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(violations.Data))
		})
	}
}

func TestBackendConcurrentCommitsOneWins(t *testing.T) {
	t.Parallel()
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			require.NoError(t, backend.Commit(ctx, []storage.Write{
				{Collection: storage.VerifiedUsersCollection, Data: []byte(`{}`), Version: 0},
			}))

			const writers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := backend.Commit(ctx, []storage.Write{
						{Collection: storage.VerifiedUsersCollection, Data: []byte(`{"x":1}`), Version: 1},
					})
					if err == nil {
						mu.Lock()
						succeeded++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, succeeded)
			doc, err := backend.Load(ctx, storage.VerifiedUsersCollection)
			require.NoError(t, err)
			assert.Equal(t, int64(2), doc.Version)
		})
	}
}
