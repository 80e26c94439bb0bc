package legacy

import (
	"context"

	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/storage"
)

// Counts reports how many entries an import wrote per collection.
type Counts struct {
	Groups        int
	Violations    int
	CleanMessages int
	Mutes         int
	Bans          int
	VerifiedUsers int
	// Conflicts counts legacy log records dropped because the same message
	// is already in the opposite log.
	Conflicts int
}

// Import merges the snapshot into the store in a single update. Entries
// already present in the store win over legacy ones, and log records that
// already exist are not added twice, so running the import again is a
// no-op. A message never lands in both logs: the clean log is merged first
// and wins over the violating one.
func (s *Snapshot) Import(ctx context.Context, store *storage.Coordinator) (Counts, error) {
	var counts Counts
	err := store.Update(ctx, func(tx *storage.Tx) error {
		counts = Counts{}

		var groups models.ActiveGroups
		if err := tx.Load(storage.ActiveGroupsCollection, &groups); err != nil {
			return err
		}
		counts.Groups = mergeMap(groups, s.ActiveGroups)

		var violations, clean models.MessageLogs
		if err := tx.Load(storage.ViolationsCollection, &violations); err != nil {
			return err
		}
		if err := tx.Load(storage.CleanMessagesCollection, &clean); err != nil {
			return err
		}
		var conflicts int
		counts.CleanMessages, conflicts = mergeLogs(clean, s.CleanMessages, violations)
		counts.Conflicts += conflicts
		counts.Violations, conflicts = mergeLogs(violations, s.Violations, clean)
		counts.Conflicts += conflicts

		var mutes models.Mutes
		if err := tx.Load(storage.MutesCollection, &mutes); err != nil {
			return err
		}
		var bans models.Bans
		if err := tx.Load(storage.BansCollection, &bans); err != nil {
			return err
		}
		var verified models.VerifiedUsers
		if err := tx.Load(storage.VerifiedUsersCollection, &verified); err != nil {
			return err
		}
		counts.Bans = mergeMap(bans, s.Bans)
		for id, m := range s.Mutes {
			// a ban supersedes any mute
			if bans.Has(id) {
				continue
			}
			if _, ok := mutes[id]; !ok {
				mutes[id] = m
				counts.Mutes++
			}
		}
		counts.VerifiedUsers = mergeMap(verified, s.VerifiedUsers)

		for col, v := range map[storage.Collection]any{
			storage.ActiveGroupsCollection:  groups,
			storage.ViolationsCollection:    violations,
			storage.CleanMessagesCollection: clean,
			storage.MutesCollection:         mutes,
			storage.BansCollection:          bans,
			storage.VerifiedUsersCollection: verified,
		} {
			if err := tx.Store(col, v); err != nil {
				return err
			}
		}
		return nil
	},
		storage.ActiveGroupsCollection,
		storage.ViolationsCollection,
		storage.CleanMessagesCollection,
		storage.MutesCollection,
		storage.BansCollection,
		storage.VerifiedUsersCollection,
	)
	if err == nil && counts.Conflicts > 0 {
		logger.Warningf("Legacy import dropped %d records already present in the opposite log", counts.Conflicts)
	}
	return counts, err
}

func mergeMap[V any](dst, src map[int64]V) int {
	n := 0
	for id, v := range src {
		if _, ok := dst[id]; ok {
			continue
		}
		dst[id] = v
		n++
	}
	return n
}

// mergeLogs appends the legacy records that dst does not hold yet. A
// record is identified by group, timestamp and text since most legacy
// records carry no message id. Records whose message is already in other
// are skipped and returned as conflicts.
func mergeLogs(dst, src, other models.MessageLogs) (added, conflicts int) {
	type key struct {
		group int64
		at    int64
		text  string
	}
	for _, userID := range src.Users() {
		seen := make(map[key]bool, len(dst[userID]))
		for _, r := range dst[userID] {
			seen[key{r.GroupID, r.Timestamp.Unix(), r.Message}] = true
		}
		var add []models.MessageRecord
		for _, r := range src[userID] {
			k := key{r.GroupID, r.Timestamp.Unix(), r.Message}
			if seen[k] {
				continue
			}
			seen[k] = true
			if other.Find(userID, r.GroupID, r.MessageID) >= 0 {
				conflicts++
				continue
			}
			add = append(add, r)
		}
		if len(add) > 0 {
			dst.Append(userID, add...)
			added += len(add)
		}
	}
	return added, conflicts
}
