package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway/gatewaytest"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/notice"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/scheduler"
	"tg-antijudi/internal/storage"
)

const group = int64(-100500)

var t0 = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store *storage.Coordinator
	gw    *gatewaytest.Recorder
	exec  *sanction.Executor
	sched *scheduler.Scheduler
	now   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewCoordinator(storage.NewMemoryBackend(), config.RetryConfig{
		MaxRetries:      10,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
	gw := gatewaytest.New()
	exec := sanction.New(store, gw, notice.New(gw, store, models.LangIndonesian), config.ModerationConfig{
		MuteDuration:       6 * time.Hour,
		GatewayTimeout:     time.Second,
		GatewayConcurrency: 4,
	})
	f := &fixture{store: store, gw: gw, exec: exec, now: t0}
	exec.SetClock(func() time.Time { return f.now })

	f.sched = scheduler.New(store, exec, config.SchedulerConfig{Interval: 10 * time.Millisecond})
	f.sched.SetClock(func() time.Time { return f.now })

	require.NoError(t, store.Update(t.Context(), func(tx *storage.Tx) error {
		if err := tx.Store(storage.ActiveGroupsCollection, models.ActiveGroups{group: {GroupID: group, GroupName: "Grup"}}); err != nil {
			return err
		}
		return tx.Store(storage.VerifiedUsersCollection, models.VerifiedUsers{1: {}, 2: {}})
	}, storage.ActiveGroupsCollection, storage.VerifiedUsersCollection))
	return f
}

func (f *fixture) mute(t *testing.T, id int64) {
	t.Helper()
	out, err := f.exec.Mute(t.Context(), models.Identity{UserID: id, Username: "u"}, sanction.OriginAutomatic)
	require.NoError(t, err)
	require.True(t, out.Any())
}

func (f *fixture) mutes(t *testing.T) models.Mutes {
	t.Helper()
	var m models.Mutes
	require.NoError(t, f.store.View(t.Context(), storage.MutesCollection, &m))
	return m
}

func TestTickLiftsOnlyDueMutes(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.mute(t, 1)
	f.now = t0.Add(time.Hour)
	f.mute(t, 2)
	f.gw.Reset()

	f.now = t0.Add(6 * time.Hour)
	n, err := f.sched.Tick(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mutes := f.mutes(t)
	assert.NotContains(t, mutes, int64(1))
	assert.Contains(t, mutes, int64(2))
	assert.Len(t, f.gw.MessagesTo(1), 1)
	assert.Empty(t, f.gw.MessagesTo(2))
}

func TestTickSendsOneDirectNoticePerExpiry(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.mute(t, 1)
	f.gw.Reset()
	f.now = t0.Add(7 * time.Hour)

	for i := 0; i < 3; i++ {
		_, err := f.sched.Tick(t.Context())
		require.NoError(t, err)
	}
	assert.Len(t, f.gw.MessagesTo(1), 1)
	assert.Len(t, f.gw.Calls("Unrestrict"), 1)
}

func TestTickRetriesAfterGatewayFailure(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.mute(t, 1)
	f.gw.Reset()
	f.now = t0.Add(7 * time.Hour)

	f.gw.Fail("Unrestrict", 0)
	_, err := f.sched.Tick(t.Context())
	require.NoError(t, err)
	assert.Contains(t, f.mutes(t), int64(1))

	f.gw.Recover("Unrestrict", 0)
	_, err = f.sched.Tick(t.Context())
	require.NoError(t, err)
	assert.NotContains(t, f.mutes(t), int64(1))
	assert.Len(t, f.gw.MessagesTo(1), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.mute(t, 1)
	f.now = t0.Add(7 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sched.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		var m models.Mutes
		if err := f.store.View(context.Background(), storage.MutesCollection, &m); err != nil {
			return false
		}
		return len(m) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
