package scheduler

import (
	"context"
	"errors"
	"time"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/crash"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/storage"
)

// Lifter is the part of the sanction executor the scheduler drives.
type Lifter interface {
	LiftMute(ctx context.Context, userID int64, origin sanction.Origin) (sanction.Outcome, error)
}

// Scheduler lifts expired mutes. Completion is recorded only by the
// executor deleting the entry, so an interrupted tick is simply repeated.
type Scheduler struct {
	store        *storage.Coordinator
	lifter       Lifter
	interval     time.Duration
	initialDelay time.Duration
	now          func() time.Time
}

func New(store *storage.Coordinator, lifter Lifter, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:        store,
		lifter:       lifter,
		interval:     cfg.Interval,
		initialDelay: cfg.InitialDelay,
		now:          time.Now,
	}
}

// SetClock replaces the time source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Infof("Mute scheduler started: first run in %s, then every %s", s.initialDelay, s.interval)

	delay := time.NewTimer(s.initialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.safeTick(ctx)
		select {
		case <-ctx.Done():
			logger.Infof("Mute scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	err := crash.Guard("mute-scheduler", func() error {
		_, err := s.Tick(ctx)
		return err
	})
	metrics.SchedulerTicks.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Mute scheduler tick failed: %v", err)
	}
}

// Tick lifts every mute whose release time has passed and returns the
// number of entries it processed. Each user is handled under the user's
// lock so a concurrent violation for that user waits.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	var mutes models.Mutes
	if err := s.store.View(ctx, storage.MutesCollection, &mutes); err != nil {
		return 0, err
	}
	metrics.ActiveMutes.Set(float64(len(mutes)))

	due := mutes.DueAt(s.now())
	if len(due) == 0 {
		return 0, nil
	}
	logger.Debugf("Mute scheduler: %d of %d mutes are due", len(due), len(mutes))

	processed := 0
	for _, userID := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		err := s.store.WithUser(ctx, userID, func(ctx context.Context) error {
			// re-read under the lock: the mute may have been lifted or extended
			var current models.Mutes
			if err := s.store.View(ctx, storage.MutesCollection, &current); err != nil {
				return err
			}
			entry, ok := current[userID]
			if !ok || !entry.Due(s.now()) {
				return nil
			}
			_, err := s.lifter.LiftMute(ctx, userID, sanction.OriginExpiry)
			return err
		})
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			logger.Warningf("Failed to lift mute of user %d: %v", userID, err)
			continue
		}
		processed++
	}
	return processed, nil
}
