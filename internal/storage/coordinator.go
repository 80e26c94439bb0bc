package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
)

// Coordinator serializes read-modify-write cycles on collections. Within a
// process every collection has one exclusive lock; across processes the
// backend's version check turns a lost update into a retry.
type Coordinator struct {
	backend Backend
	retry   config.RetryConfig

	mu    sync.Mutex
	locks map[Collection]chan struct{}
	users *keyedMutex
}

// NewCoordinator wraps a backend.
func NewCoordinator(backend Backend, retry config.RetryConfig) *Coordinator {
	return &Coordinator{
		backend: backend,
		retry:   retry,
		locks:   make(map[Collection]chan struct{}),
		users:   newKeyedMutex(),
	}
}

// Backend returns the underlying store.
func (c *Coordinator) Backend() Backend {
	return c.backend
}

// Tx is the view of the locked collections handed to an Update callback.
type Tx struct {
	docs   map[Collection]Document
	writes map[Collection][]byte
}

// Load decodes the current value of a locked collection into v.
func (tx *Tx) Load(collection Collection, v any) error {
	doc, ok := tx.docs[collection]
	if !ok {
		return fmt.Errorf("%w: collection %s is not part of this update", models.ErrInvalidArgument, collection)
	}
	if err := decode(doc.Data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", models.ErrStoreUnavailable, collection, err)
	}
	return nil
}

// Store stages a new value for a locked collection. Nothing is written
// until the callback returns nil.
func (tx *Tx) Store(collection Collection, v any) error {
	if _, ok := tx.docs[collection]; !ok {
		return fmt.Errorf("%w: collection %s is not part of this update", models.ErrInvalidArgument, collection)
	}
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrInvalidArgument, collection, err)
	}
	tx.writes[collection] = data
	return nil
}

// Update locks the given collections, loads them, runs fn and persists what
// fn stored. fn may run more than once when another writer commits first,
// so it must not have side effects beyond the Tx. An error from fn leaves
// every collection unchanged; ErrNoChange is swallowed.
func (c *Coordinator) Update(ctx context.Context, fn func(tx *Tx) error, collections ...Collection) error {
	if len(collections) == 0 {
		return fmt.Errorf("%w: update without collections", models.ErrInvalidArgument)
	}
	start := time.Now()
	defer func() { metrics.StoreUpdateDuration.Observe(time.Since(start).Seconds()) }()

	cols := sortedUnique(collections)
	release, err := c.acquire(ctx, cols)
	if err != nil {
		return err
	}
	defer release()

	attempt := 0
	operation := func() error {
		attempt++
		tx := &Tx{
			docs:   make(map[Collection]Document, len(cols)),
			writes: make(map[Collection][]byte, len(cols)),
		}
		for _, col := range cols {
			doc, err := c.backend.Load(ctx, col)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("%w: load %s: %w", models.ErrStoreUnavailable, col, err))
			}
			tx.docs[col] = doc
		}

		if err := fn(tx); err != nil {
			if errors.Is(err, ErrNoChange) {
				return nil
			}
			return backoff.Permanent(err)
		}
		if len(tx.writes) == 0 {
			return nil
		}

		writes := make([]Write, 0, len(tx.writes))
		for _, col := range cols {
			if data, ok := tx.writes[col]; ok {
				writes = append(writes, Write{Collection: col, Data: data, Version: tx.docs[col].Version})
			}
		}
		err := c.backend.Commit(ctx, writes)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrVersionConflict):
			for _, w := range writes {
				metrics.StoreConflicts.WithLabelValues(string(w.Collection)).Inc()
			}
			logger.Debugf("Store conflict on %v (attempt %d), retrying", cols, attempt)
			return err
		default:
			return backoff.Permanent(fmt.Errorf("%w: commit %v: %w", models.ErrStoreUnavailable, cols, err))
		}
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.backOff(), ctx)); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("%w: %v changed concurrently after %d attempts", models.ErrConflict, cols, attempt)
		}
		return err
	}
	return nil
}

// View decodes the current value of a collection without locking it.
func (c *Coordinator) View(ctx context.Context, collection Collection, v any) error {
	doc, err := c.backend.Load(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: load %s: %w", models.ErrStoreUnavailable, collection, err)
	}
	if err := decode(doc.Data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", models.ErrStoreUnavailable, collection, err)
	}
	return nil
}

// WithUser runs fn while holding the lock of one user. Operations for
// different users do not wait for each other.
func (c *Coordinator) WithUser(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	unlock, err := c.users.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

func (c *Coordinator) backOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.retry.InitialInterval),
		backoff.WithMaxInterval(c.retry.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	), c.retry.MaxRetries)
}

func (c *Coordinator) lockFor(col Collection) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.locks[col]
	if !ok {
		ch = make(chan struct{}, 1)
		c.locks[col] = ch
	}
	return ch
}

// acquire takes the locks in the given (sorted) order.
func (c *Coordinator) acquire(ctx context.Context, cols []Collection) (func(), error) {
	held := make([]chan struct{}, 0, len(cols))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, col := range cols {
		ch := c.lockFor(col)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func sortedUnique(cols []Collection) []Collection {
	seen := make(map[Collection]struct{}, len(cols))
	out := make([]Collection, 0, len(cols))
	for _, col := range cols {
		if _, ok := seen[col]; ok {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
