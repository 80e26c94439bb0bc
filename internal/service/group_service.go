package service

import (
	"context"
	"fmt"

	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/storage"
)

// ActivateGroup enables moderation in a group, recording who activated it
// and the current administrators. It reports false when the group was
// already active.
func (m *Moderator) ActivateGroup(ctx context.Context, groupID int64, groupName string, by models.Identity) (models.GroupInfo, bool, error) {
	if groupID == 0 {
		return models.GroupInfo{}, false, fmt.Errorf("%w: group id is required", models.ErrInvalidArgument)
	}
	admins, err := m.gw.ListAdmins(ctx, groupID)
	if err != nil {
		return models.GroupInfo{}, false, fmt.Errorf("list admins of group %d: %w", groupID, err)
	}

	var info models.GroupInfo
	activated := false
	err = m.store.Update(ctx, func(tx *storage.Tx) error {
		var groups models.ActiveGroups
		if err := tx.Load(storage.ActiveGroupsCollection, &groups); err != nil {
			return err
		}
		if existing, ok := groups[groupID]; ok {
			info = existing
			return storage.ErrNoChange
		}
		info = models.GroupInfo{
			GroupID:     groupID,
			GroupName:   groupName,
			ActivatedBy: by.DisplayName(),
			ActivatedAt: m.now(),
			Admins:      admins,
		}
		groups[groupID] = info
		activated = true
		return tx.Store(storage.ActiveGroupsCollection, groups)
	}, storage.ActiveGroupsCollection)
	if err != nil {
		return models.GroupInfo{}, false, err
	}
	if activated {
		logger.Infof("Group %s activated by %s with %d admins", info, info.ActivatedBy, len(admins))
	}
	return info, activated, nil
}

// DeactivateGroup disables moderation in a group.
func (m *Moderator) DeactivateGroup(ctx context.Context, groupID int64) error {
	err := m.store.Update(ctx, func(tx *storage.Tx) error {
		var groups models.ActiveGroups
		if err := tx.Load(storage.ActiveGroupsCollection, &groups); err != nil {
			return err
		}
		if _, ok := groups[groupID]; !ok {
			return fmt.Errorf("%w: group %d is not active", models.ErrNotFound, groupID)
		}
		delete(groups, groupID)
		return tx.Store(storage.ActiveGroupsCollection, groups)
	}, storage.ActiveGroupsCollection)
	if err != nil {
		return err
	}
	logger.Infof("Group %d deactivated", groupID)
	return nil
}

// GroupStatus returns the registry entry of a group and whether it is active.
func (m *Moderator) GroupStatus(ctx context.Context, groupID int64) (models.GroupInfo, bool, error) {
	groups, err := m.ActiveGroups(ctx)
	if err != nil {
		return models.GroupInfo{}, false, err
	}
	info, ok := groups[groupID]
	return info, ok, nil
}

// IsGroupAdmin asks the platform whether a user administers a group.
func (m *Moderator) IsGroupAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	admins, err := m.gw.ListAdmins(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, a := range admins {
		if a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
