package storage_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/storage"
)

var testRetry = config.RetryConfig{
	MaxRetries:      20,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func TestUpdateStoresAndNormalizes(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	var mutes models.Mutes
	require.NoError(t, coord.View(ctx, storage.MutesCollection, &mutes))
	assert.NotNil(t, mutes)
	assert.Empty(t, mutes)

	err := coord.Update(ctx, func(tx *storage.Tx) error {
		var m models.Mutes
		if err := tx.Load(storage.MutesCollection, &m); err != nil {
			return err
		}
		m[42] = models.MuteEntry{Username: "@spammer", Until: time.Unix(1000, 0)}
		return tx.Store(storage.MutesCollection, m)
	}, storage.MutesCollection)
	require.NoError(t, err)

	require.NoError(t, coord.View(ctx, storage.MutesCollection, &mutes))
	require.Contains(t, mutes, int64(42))
	assert.Equal(t, "spammer", mutes[42].Username)
	assert.NotNil(t, mutes[42].Groups)
}

func TestUpdateCallbackErrorLeavesStoreUntouched(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	backend := storage.NewMemoryBackend()
	coord := storage.NewCoordinator(backend, testRetry)

	boom := errors.New("boom")
	err := coord.Update(ctx, func(tx *storage.Tx) error {
		if err := tx.Store(storage.BansCollection, models.Bans{1: {}}); err != nil {
			return err
		}
		return boom
	}, storage.BansCollection)
	require.ErrorIs(t, err, boom)

	doc, err := backend.Load(ctx, storage.BansCollection)
	require.NoError(t, err)
	assert.Zero(t, doc.Version)
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	backend := storage.NewMemoryBackend()
	coord := storage.NewCoordinator(backend, testRetry)

	err := coord.Update(ctx, func(tx *storage.Tx) error {
		return storage.ErrNoChange
	}, storage.BansCollection)
	require.NoError(t, err)

	doc, err := backend.Load(ctx, storage.BansCollection)
	require.NoError(t, err)
	assert.Zero(t, doc.Version)
}

func TestUpdateRejectsUnlockedCollection(t *testing.T) {
	t.Parallel()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	err := coord.Update(t.Context(), func(tx *storage.Tx) error {
		var bans models.Bans
		return tx.Load(storage.BansCollection, &bans)
	}, storage.MutesCollection)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestUpdateRejectsInvalidRecords(t *testing.T) {
	t.Parallel()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	err := coord.Update(t.Context(), func(tx *storage.Tx) error {
		logs := models.MessageLogs{7: {{GroupID: 0, Message: "no group"}}}
		return tx.Store(storage.ViolationsCollection, logs)
	}, storage.ViolationsCollection)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

// conflictingBackend makes the first N commits fail as if another process
// had written in between.
type conflictingBackend struct {
	*storage.MemoryBackend
	failures atomic.Int32
}

func (c *conflictingBackend) Commit(ctx context.Context, writes []storage.Write) error {
	if c.failures.Add(-1) >= 0 {
		return storage.ErrVersionConflict
	}
	return c.MemoryBackend.Commit(ctx, writes)
}

func TestUpdateRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()
	backend := &conflictingBackend{MemoryBackend: storage.NewMemoryBackend()}
	backend.failures.Store(3)
	coord := storage.NewCoordinator(backend, testRetry)

	calls := 0
	err := coord.Update(t.Context(), func(tx *storage.Tx) error {
		calls++
		return tx.Store(storage.BansCollection, models.Bans{9: {Username: "x"}})
	}, storage.BansCollection)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestUpdateGivesUpAsConflict(t *testing.T) {
	t.Parallel()
	backend := &conflictingBackend{MemoryBackend: storage.NewMemoryBackend()}
	backend.failures.Store(1000)
	coord := storage.NewCoordinator(backend, config.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	err := coord.Update(t.Context(), func(tx *storage.Tx) error {
		return tx.Store(storage.BansCollection, models.Bans{})
	}, storage.BansCollection)
	require.ErrorIs(t, err, models.ErrConflict)
}

// Two coordinators over one backend stand in for two processes sharing a
// database: increments must not be lost.
func TestConcurrentUpdatesAcrossCoordinators(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	backend := storage.NewMemoryBackend()
	retry := config.RetryConfig{MaxRetries: 200, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	coords := []*storage.Coordinator{
		storage.NewCoordinator(backend, retry),
		storage.NewCoordinator(backend, retry),
	}

	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(coord *storage.Coordinator, w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := coord.Update(ctx, func(tx *storage.Tx) error {
					var logs models.MessageLogs
					if err := tx.Load(storage.ViolationsCollection, &logs); err != nil {
						return err
					}
					logs.Append(1, models.MessageRecord{GroupID: -100, MessageID: w*1000 + i + 1})
					return tx.Store(storage.ViolationsCollection, logs)
				}, storage.ViolationsCollection)
				assert.NoError(t, err)
			}
		}(coords[w%2], w)
	}
	wg.Wait()

	var logs models.MessageLogs
	require.NoError(t, coords[0].View(ctx, storage.ViolationsCollection, &logs))
	assert.Equal(t, 4*perWorker, logs.Count(1))
}

func TestDisjointCollectionsDoNotBlock(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = coord.Update(ctx, func(tx *storage.Tx) error {
			close(entered)
			<-release
			return storage.ErrNoChange
		}, storage.MutesCollection)
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- coord.Update(ctx, func(tx *storage.Tx) error {
			return tx.Store(storage.BansCollection, models.Bans{})
		}, storage.BansCollection)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("update on bans blocked behind mutes")
	}
	close(release)
}

func TestUpdateHonoursContextWhileWaiting(t *testing.T) {
	t.Parallel()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = coord.Update(context.Background(), func(tx *storage.Tx) error {
			close(entered)
			<-release
			return storage.ErrNoChange
		}, storage.MutesCollection)
	}()
	<-entered
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := coord.Update(ctx, func(tx *storage.Tx) error { return nil }, storage.MutesCollection, storage.BansCollection)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithUserSerializesSameUser(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = coord.WithUser(ctx, 5, func(ctx context.Context) error {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestWithUserDistinctUsersRunConcurrently(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	coord := storage.NewCoordinator(storage.NewMemoryBackend(), testRetry)

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = coord.WithUser(ctx, 1, func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	done := make(chan struct{})
	go func() {
		_ = coord.WithUser(ctx, 2, func(ctx context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("user 2 waited for user 1")
	}
}
