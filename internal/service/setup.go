package service

import (
	"fmt"
	"time"

	"tg-antijudi/internal/classifier"
	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/ledger"
	"tg-antijudi/internal/notice"
	"tg-antijudi/internal/policy"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/storage"
)

// Moderator is the single engine behind the bot handlers, the mute
// scheduler and the admin API. Every state change for a user runs under
// that user's lock.
type Moderator struct {
	store      *storage.Coordinator
	gw         gateway.Gateway
	classifier classifier.Classifier
	notify     *notice.Notifier
	ledger     *ledger.Ledger
	policy     *policy.Policy
	exec       *sanction.Executor
	minLength  int
	now        func() time.Time
}

// New wires the engine components from the configuration.
func New(cfg *config.Config, store *storage.Coordinator, gw gateway.Gateway, cls classifier.Classifier) (*Moderator, error) {
	pol, err := policy.New(cfg.Moderation.MuteThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid escalation policy: %w", err)
	}
	notify := notice.New(gw, store, cfg.Bot.Language)
	return &Moderator{
		store:      store,
		gw:         gw,
		classifier: cls,
		notify:     notify,
		ledger:     ledger.New(store, gw, notify),
		policy:     pol,
		exec:       sanction.New(store, gw, notify, cfg.Moderation),
		minLength:  cfg.Moderation.MinTextLength,
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source of the moderator and its executor.
func (m *Moderator) SetClock(now func() time.Time) {
	m.now = now
	m.exec.SetClock(now)
}

// Executor is exposed for the mute scheduler.
func (m *Moderator) Executor() *sanction.Executor {
	return m.exec
}

// Notifier renders and sends localized notices.
func (m *Moderator) Notifier() *notice.Notifier {
	return m.notify
}

// Store returns the coordinated store.
func (m *Moderator) Store() *storage.Coordinator {
	return m.store
}
