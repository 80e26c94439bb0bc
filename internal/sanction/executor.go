package sanction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/notice"
	"tg-antijudi/internal/policy"
	"tg-antijudi/internal/storage"
)

// Executor applies mutes and bans across every active group and keeps the
// Mutes and Bans collections in step with what the platform accepted.
// Gateway calls happen outside store updates; the store only records the
// groups where a call succeeded.
type Executor struct {
	store       *storage.Coordinator
	gw          gateway.Gateway
	notify      *notice.Notifier
	duration    time.Duration
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

func New(store *storage.Coordinator, gw gateway.Gateway, notify *notice.Notifier, cfg config.ModerationConfig) *Executor {
	concurrency := cfg.GatewayConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{
		store:       store,
		gw:          gw,
		notify:      notify,
		duration:    cfg.MuteDuration,
		timeout:     cfg.GatewayTimeout,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

// Apply executes a policy decision.
func (e *Executor) Apply(ctx context.Context, user models.Identity, decision policy.Decision, origin Origin) (Outcome, error) {
	switch decision {
	case policy.Mute:
		return e.Mute(ctx, user, origin)
	case policy.Ban:
		return e.Ban(ctx, user, origin)
	default:
		return Outcome{Action: decision.String()}, nil
	}
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// fanOut runs action for every group on a bounded pool. With checkMember
// the user's membership is confirmed first and non-members are skipped.
// One group failing never stops the others.
func (e *Executor) fanOut(ctx context.Context, name string, userID int64, groups []int64, checkMember bool,
	action func(ctx context.Context, groupID int64) error) Outcome {
	out := newOutcome(name)
	var mu sync.Mutex
	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.concurrency)

	for _, groupID := range groups {
		p.Go(func(ctx context.Context) error {
			if checkMember {
				callCtx, cancel := e.callContext(ctx)
				member, err := e.gw.IsMember(callCtx, groupID, userID)
				cancel()
				if err != nil || !member {
					mu.Lock()
					if err != nil {
						out.Failed[groupID] = err
					} else {
						out.Skipped = append(out.Skipped, groupID)
					}
					mu.Unlock()
					return nil
				}
			}

			callCtx, cancel := e.callContext(ctx)
			err := action(callCtx, groupID)
			cancel()

			mu.Lock()
			if err != nil {
				logger.Warningf("%s of user %d failed in group %d: %v", name, userID, groupID, err)
				out.Failed[groupID] = err
			} else {
				out.Succeeded = append(out.Succeeded, groupID)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()
	out.sort()
	return *out
}

func (e *Executor) activeGroups(ctx context.Context) (models.ActiveGroups, error) {
	var groups models.ActiveGroups
	if err := e.store.View(ctx, storage.ActiveGroupsCollection, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func observe(action string, origin Origin, out Outcome, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case !out.Any():
		result = "none"
	}
	metrics.SanctionsApplied.WithLabelValues(action, string(origin), result).Inc()
}

func noticeOrigin(origin Origin, fallback Origin) Origin {
	if origin == OriginAdmin {
		return OriginAdmin
	}
	return fallback
}

// Mute restricts the user in every active group they belong to until now
// plus the mute duration. The MuteEntry is created or extended when at
// least one group accepted.
func (e *Executor) Mute(ctx context.Context, user models.Identity, origin Origin) (out Outcome, err error) {
	defer func() { observe("mute", origin, out, err) }()

	groups, err := e.activeGroups(ctx)
	if err != nil {
		return Outcome{Action: "mute"}, err
	}
	until := e.now().Add(e.duration)
	out = e.fanOut(ctx, "mute", user.UserID, groups.IDs(), true, func(ctx context.Context, groupID int64) error {
		return e.gw.Restrict(ctx, groupID, user.UserID, until)
	})
	if !out.Any() {
		logger.Warningf("Mute of user %d applied nowhere (%s)", user.UserID, out)
		return out, nil
	}

	err = e.store.Update(ctx, func(tx *storage.Tx) error {
		var mutes models.Mutes
		if err := tx.Load(storage.MutesCollection, &mutes); err != nil {
			return err
		}
		entry := mutes[user.UserID]
		if entry.Groups == nil {
			entry.Groups = map[int64]string{}
		}
		for _, groupID := range out.Succeeded {
			entry.Groups[groupID] = groups.Name(groupID)
		}
		if until.After(entry.Until) {
			entry.Until = until
		}
		if user.Username != "" || entry.Username == "" {
			entry.Username = user.Username
		}
		if user.Name != "" || entry.Name == "" {
			entry.Name = user.Name
		}
		mutes[user.UserID] = entry
		return tx.Store(storage.MutesCollection, mutes)
	}, storage.MutesCollection)
	if err != nil {
		return out, fmt.Errorf("mute of user %d applied in %d groups but not recorded: %w", user.UserID, len(out.Succeeded), err)
	}

	logger.Infof("Muted user %d until %s (%s)", user.UserID, until.Format(time.RFC3339), out)
	o := noticeOrigin(origin, OriginAutomatic)
	for _, groupID := range out.Succeeded {
		e.notify.Group(ctx, groupID, fmt.Sprintf("mute_%s_group", o), user.DisplayName())
	}
	e.notify.Direct(ctx, user.UserID, fmt.Sprintf("mute_%s_direct", o))
	return out, nil
}

// Ban bans the user in every active group they belong to. The BanEntry is
// recorded only when at least one group accepted; any MuteEntry is dropped
// in the same update.
func (e *Executor) Ban(ctx context.Context, user models.Identity, origin Origin) (out Outcome, err error) {
	defer func() { observe("ban", origin, out, err) }()

	groups, err := e.activeGroups(ctx)
	if err != nil {
		return Outcome{Action: "ban"}, err
	}
	out = e.fanOut(ctx, "ban", user.UserID, groups.IDs(), true, func(ctx context.Context, groupID int64) error {
		return e.gw.Ban(ctx, groupID, user.UserID)
	})
	if !out.Any() {
		logger.Warningf("Ban of user %d applied nowhere (%s)", user.UserID, out)
		return out, nil
	}

	err = e.store.Update(ctx, func(tx *storage.Tx) error {
		var bans models.Bans
		var mutes models.Mutes
		if err := tx.Load(storage.BansCollection, &bans); err != nil {
			return err
		}
		if err := tx.Load(storage.MutesCollection, &mutes); err != nil {
			return err
		}
		if _, ok := bans[user.UserID]; !ok {
			bans[user.UserID] = models.BanEntry{Username: user.Username, Name: user.Name, BannedAt: e.now()}
		}
		if err := tx.Store(storage.BansCollection, bans); err != nil {
			return err
		}
		if _, ok := mutes[user.UserID]; ok {
			delete(mutes, user.UserID)
			return tx.Store(storage.MutesCollection, mutes)
		}
		return nil
	}, storage.BansCollection, storage.MutesCollection)
	if err != nil {
		return out, fmt.Errorf("ban of user %d applied in %d groups but not recorded: %w", user.UserID, len(out.Succeeded), err)
	}

	logger.Infof("Banned user %d (%s)", user.UserID, out)
	o := noticeOrigin(origin, OriginAutomatic)
	for _, groupID := range out.Succeeded {
		e.notify.Group(ctx, groupID, fmt.Sprintf("ban_%s_group", o), user.DisplayName())
	}
	e.notify.Direct(ctx, user.UserID, fmt.Sprintf("ban_%s_direct", o))
	return out, nil
}

// LiftMute lifts a mute in the groups recorded on its entry. The entry is
// removed when a group accepted or the user left all of them; when every
// call failed it is kept so the next attempt retries. An entry whose
// release time moved past the one observed here was extended concurrently
// and is left alone.
func (e *Executor) LiftMute(ctx context.Context, userID int64, origin Origin) (out Outcome, err error) {
	defer func() { observe("unmute", origin, out, err) }()

	var mutes models.Mutes
	if err := e.store.View(ctx, storage.MutesCollection, &mutes); err != nil {
		return Outcome{Action: "unmute"}, err
	}
	entry, ok := mutes[userID]
	if !ok {
		return Outcome{Action: "unmute"}, fmt.Errorf("%w: user %d is not muted", models.ErrNotFound, userID)
	}

	out = e.fanOut(ctx, "unmute", userID, entry.GroupIDs(), true, func(ctx context.Context, groupID int64) error {
		return e.gw.Unrestrict(ctx, groupID, userID)
	})
	if out.AllFailed() {
		logger.Warningf("Unmute of user %d failed everywhere, keeping entry for retry (%s)", userID, out)
		return out, nil
	}

	removed := false
	err = e.store.Update(ctx, func(tx *storage.Tx) error {
		removed = false
		var current models.Mutes
		if err := tx.Load(storage.MutesCollection, &current); err != nil {
			return err
		}
		cur, ok := current[userID]
		if !ok {
			return storage.ErrNoChange
		}
		if cur.Until.After(entry.Until) {
			logger.Infof("Mute of user %d was extended to %s, keeping entry", userID, cur.Until.Format(time.RFC3339))
			return storage.ErrNoChange
		}
		delete(current, userID)
		removed = true
		return tx.Store(storage.MutesCollection, current)
	}, storage.MutesCollection)
	if err != nil {
		return out, err
	}
	if !removed || !out.Any() {
		return out, nil
	}

	logger.Infof("Unmuted user %d (%s)", userID, out)
	o := noticeOrigin(origin, OriginExpiry)
	who := models.Identity{UserID: userID, Username: entry.Username, Name: entry.Name}.DisplayName()
	for _, groupID := range out.Succeeded {
		e.notify.Group(ctx, groupID, fmt.Sprintf("unmute_%s_group", o), who)
	}
	e.notify.Direct(ctx, userID, fmt.Sprintf("unmute_%s_direct", o))
	return out, nil
}

// LiftBan unbans the user in every active group and removes the BanEntry.
// When every call fails the entry is kept and an error returned.
func (e *Executor) LiftBan(ctx context.Context, userID int64, origin Origin) (out Outcome, err error) {
	defer func() { observe("unban", origin, out, err) }()

	var bans models.Bans
	if err := e.store.View(ctx, storage.BansCollection, &bans); err != nil {
		return Outcome{Action: "unban"}, err
	}
	if !bans.Has(userID) {
		return Outcome{Action: "unban"}, fmt.Errorf("%w: user %d is not banned", models.ErrNotFound, userID)
	}

	groups, err := e.activeGroups(ctx)
	if err != nil {
		return Outcome{Action: "unban"}, err
	}
	out = e.fanOut(ctx, "unban", userID, groups.IDs(), false, func(ctx context.Context, groupID int64) error {
		return e.gw.Unban(ctx, groupID, userID)
	})
	if out.AllFailed() {
		return out, fmt.Errorf("%w: unban of user %d failed in every group", models.ErrGatewayUnavailable, userID)
	}

	err = e.store.Update(ctx, func(tx *storage.Tx) error {
		var current models.Bans
		if err := tx.Load(storage.BansCollection, &current); err != nil {
			return err
		}
		if !current.Has(userID) {
			return storage.ErrNoChange
		}
		delete(current, userID)
		return tx.Store(storage.BansCollection, current)
	}, storage.BansCollection)
	if err != nil {
		return out, err
	}

	logger.Infof("Unbanned user %d (%s)", userID, out)
	if out.Any() {
		e.notify.Direct(ctx, userID, "unban_admin_direct")
	}
	return out, nil
}

// ExtendMute carries an active mute into a group the user just joined. It
// reports whether the user was restricted there.
func (e *Executor) ExtendMute(ctx context.Context, userID, groupID int64, groupName string) (bool, error) {
	var mutes models.Mutes
	if err := e.store.View(ctx, storage.MutesCollection, &mutes); err != nil {
		return false, err
	}
	entry, ok := mutes[userID]
	if !ok || entry.Due(e.now()) {
		return false, nil
	}

	callCtx, cancel := e.callContext(ctx)
	err := e.gw.Restrict(callCtx, groupID, userID, entry.Until)
	cancel()
	metrics.SanctionsApplied.WithLabelValues("mute", "join", metrics.Result(err)).Inc()
	if err != nil {
		return false, err
	}

	err = e.store.Update(ctx, func(tx *storage.Tx) error {
		var current models.Mutes
		if err := tx.Load(storage.MutesCollection, &current); err != nil {
			return err
		}
		cur, ok := current[userID]
		if !ok {
			return storage.ErrNoChange
		}
		if _, ok := cur.Groups[groupID]; ok {
			return storage.ErrNoChange
		}
		cur.Groups[groupID] = groupName
		current[userID] = cur
		return tx.Store(storage.MutesCollection, current)
	}, storage.MutesCollection)
	if err != nil {
		return true, fmt.Errorf("mute of user %d applied in group %d but not recorded: %w", userID, groupID, err)
	}
	logger.Infof("User %d joined group %d while muted, restricted until %s", userID, groupID, entry.Until.Format(time.RFC3339))
	return true, nil
}
