package ledger

import (
	"context"
	"fmt"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/notice"
	"tg-antijudi/internal/storage"
)

// Ledger owns the Violating and Clean logs. A message appears in at most
// one of them, and a user's violation count is always the length of the
// user's Violating log.
type Ledger struct {
	store  *storage.Coordinator
	gw     gateway.Gateway
	notify *notice.Notifier
}

func New(store *storage.Coordinator, gw gateway.Gateway, notify *notice.Notifier) *Ledger {
	return &Ledger{store: store, gw: gw, notify: notify}
}

// RecordResult reports what Record did. ViolationCount is the user's count
// after the call whether or not anything was appended.
type RecordResult struct {
	Recorded       bool
	ViolationCount int
}

func collectionOf(kind models.LogKind) storage.Collection {
	if kind == models.LogViolating {
		return storage.ViolationsCollection
	}
	return storage.CleanMessagesCollection
}

type logPair map[models.LogKind]models.MessageLogs

func loadLogs(tx *storage.Tx) (logPair, error) {
	var violations, clean models.MessageLogs
	if err := tx.Load(storage.ViolationsCollection, &violations); err != nil {
		return nil, err
	}
	if err := tx.Load(storage.CleanMessagesCollection, &clean); err != nil {
		return nil, err
	}
	return logPair{models.LogViolating: violations, models.LogClean: clean}, nil
}

// Record appends a classified message to the matching log. A message an
// administrator already placed in the other log is left where it is, and a
// message already in the same log is not duplicated.
func (l *Ledger) Record(ctx context.Context, msg models.Message, isViolation bool) (RecordResult, error) {
	if msg.GroupID == 0 || msg.Sender.UserID == 0 {
		return RecordResult{}, fmt.Errorf("%w: message without group or sender", models.ErrInvalidArgument)
	}
	target := models.LogClean
	if isViolation {
		target = models.LogViolating
	}
	userID := msg.Sender.UserID

	var result RecordResult
	err := l.store.Update(ctx, func(tx *storage.Tx) error {
		logs, err := loadLogs(tx)
		if err != nil {
			return err
		}
		result = RecordResult{ViolationCount: logs[models.LogViolating].Count(userID)}

		if logs[target.Opposite()].Find(userID, msg.GroupID, msg.MessageID) >= 0 {
			logger.Infof("Message %d in group %d from user %d was already classified %s by an admin, not recording",
				msg.MessageID, msg.GroupID, userID, target.Opposite())
			return storage.ErrNoChange
		}
		if logs[target].Find(userID, msg.GroupID, msg.MessageID) >= 0 {
			return storage.ErrNoChange
		}

		logs[target].Append(userID, models.NewMessageRecord(msg))
		result.Recorded = true
		result.ViolationCount = logs[models.LogViolating].Count(userID)
		return tx.Store(collectionOf(target), logs[target])
	}, storage.ViolationsCollection, storage.CleanMessagesCollection)
	if err != nil {
		return RecordResult{}, err
	}
	return result, nil
}

// Reclassify moves a user's messages in one group into the target log.
// With no ids every entry of the user in that group is moved. Ids already
// in the target are skipped; when nothing is left to move the call is a
// no-op returning 0. It never changes sanctions.
func (l *Ledger) Reclassify(ctx context.Context, userID, groupID int64, messageIDs []int, target models.LogKind) (int, error) {
	if !target.Valid() {
		return 0, fmt.Errorf("%w: unknown log %q", models.ErrInvalidArgument, target)
	}
	for _, id := range messageIDs {
		if id <= 0 {
			return 0, fmt.Errorf("%w: message id %d", models.ErrInvalidArgument, id)
		}
	}
	source := target.Opposite()

	var moved []models.MessageRecord
	err := l.store.Update(ctx, func(tx *storage.Tx) error {
		moved = nil
		logs, err := loadLogs(tx)
		if err != nil {
			return err
		}

		var match func(models.MessageRecord) bool
		if len(messageIDs) == 0 {
			match = func(r models.MessageRecord) bool { return r.GroupID == groupID }
		} else {
			wanted := make(map[int]bool, len(messageIDs))
			for _, id := range messageIDs {
				if logs[target].Find(userID, groupID, id) < 0 {
					wanted[id] = true
				}
			}
			if len(wanted) == 0 {
				return storage.ErrNoChange
			}
			match = func(r models.MessageRecord) bool { return r.GroupID == groupID && wanted[r.MessageID] }
		}

		if len(logs[source].InGroup(userID, groupID)) == 0 {
			return fmt.Errorf("%w: user %d has no %s messages in group %d", models.ErrNotFound, userID, source, groupID)
		}
		moved = logs[source].Remove(userID, match)
		if len(moved) == 0 {
			return fmt.Errorf("%w: messages %v of user %d not found in group %d", models.ErrNotFound, messageIDs, userID, groupID)
		}
		logs[target].Append(userID, moved...)

		if err := tx.Store(collectionOf(source), logs[source]); err != nil {
			return err
		}
		return tx.Store(collectionOf(target), logs[target])
	}, storage.ViolationsCollection, storage.CleanMessagesCollection)
	if err != nil {
		return 0, err
	}
	if len(moved) == 0 {
		return 0, nil
	}

	metrics.Reclassified.WithLabelValues(string(target)).Add(float64(len(moved)))
	logger.Infof("Moved %d messages of user %d in group %d to the %s log", len(moved), userID, groupID, target)
	l.announceReclassified(ctx, userID, moved, target)
	return len(moved), nil
}

// announceReclassified runs after the commit; failures only get logged.
func (l *Ledger) announceReclassified(ctx context.Context, userID int64, moved []models.MessageRecord, target models.LogKind) {
	for _, r := range moved {
		who := models.Identity{UserID: userID, Username: r.Username, Name: r.Name}.DisplayName()
		if target == models.LogViolating {
			if r.MessageID != 0 {
				if err := l.gw.DeleteMessage(ctx, r.GroupID, r.MessageID); err != nil {
					logger.Warningf("Failed to delete message %d in group %d: %v", r.MessageID, r.GroupID, err)
				}
			}
			l.notify.Group(ctx, r.GroupID, "reclassify_violating_group", who)
		} else {
			l.notify.Group(ctx, r.GroupID, "reclassify_clean_group", who, r.Message)
		}
	}

	if target == models.LogViolating {
		l.notify.Direct(ctx, userID, "reclassify_violating_direct")
	} else {
		l.notify.Direct(ctx, userID, "reclassify_clean_direct")
	}
}

// Count returns the user's current violation count.
func (l *Ledger) Count(ctx context.Context, userID int64) (int, error) {
	var violations models.MessageLogs
	if err := l.store.View(ctx, storage.ViolationsCollection, &violations); err != nil {
		return 0, err
	}
	return violations.Count(userID), nil
}

// Entries returns a user's entries in one log.
func (l *Ledger) Entries(ctx context.Context, userID int64, kind models.LogKind) ([]models.MessageRecord, error) {
	logs, err := l.Logs(ctx, kind)
	if err != nil {
		return nil, err
	}
	return logs[userID], nil
}

// Logs returns a whole log.
func (l *Ledger) Logs(ctx context.Context, kind models.LogKind) (models.MessageLogs, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown log %q", models.ErrInvalidArgument, kind)
	}
	var logs models.MessageLogs
	if err := l.store.View(ctx, collectionOf(kind), &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
