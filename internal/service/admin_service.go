package service

import (
	"context"
	"fmt"
	"strings"

	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/storage"
)

// UserSummary is everything the engine knows about one user.
type UserSummary struct {
	Identity       models.Identity        `json:"identity"`
	ViolationCount int                    `json:"violation_count"`
	MuteThreshold  int                    `json:"mute_threshold"`
	Violations     []models.MessageRecord `json:"violations"`
	Clean          []models.MessageRecord `json:"clean"`
	Mute           *models.MuteEntry      `json:"mute,omitempty"`
	Ban            *models.BanEntry       `json:"ban,omitempty"`
	Verified       bool                   `json:"verified"`
}

// Reclassify moves a user's messages in one group to the target log.
func (m *Moderator) Reclassify(ctx context.Context, userID, groupID int64, messageIDs []int, target models.LogKind) (int, error) {
	if userID == 0 || groupID == 0 {
		return 0, fmt.Errorf("%w: user and group are required", models.ErrInvalidArgument)
	}
	var moved int
	err := m.store.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		moved, err = m.ledger.Reclassify(ctx, userID, groupID, messageIDs, target)
		return err
	})
	return moved, err
}

// SendDirect delivers an administrator's text to a user privately.
func (m *Moderator) SendDirect(ctx context.Context, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if userID == 0 || text == "" {
		return fmt.Errorf("%w: user and text are required", models.ErrInvalidArgument)
	}
	if err := m.gw.SendMessage(ctx, userID, text); err != nil {
		return fmt.Errorf("send message to user %d: %w", userID, err)
	}
	logger.Infof("Sent admin message to user %d", userID)
	return nil
}

// Mute mutes a user on an administrator's request.
func (m *Moderator) Mute(ctx context.Context, userID int64) (out sanction.Outcome, err error) {
	err = m.store.WithUser(ctx, userID, func(ctx context.Context) error {
		user, err := m.identity(ctx, userID)
		if err != nil {
			return err
		}
		out, err = m.exec.Mute(ctx, user, sanction.OriginAdmin)
		return err
	})
	return out, err
}

// Unmute lifts a user's mute on an administrator's request.
func (m *Moderator) Unmute(ctx context.Context, userID int64) (out sanction.Outcome, err error) {
	err = m.store.WithUser(ctx, userID, func(ctx context.Context) error {
		out, err = m.exec.LiftMute(ctx, userID, sanction.OriginAdmin)
		return err
	})
	return out, err
}

// Ban bans a user on an administrator's request.
func (m *Moderator) Ban(ctx context.Context, userID int64) (out sanction.Outcome, err error) {
	err = m.store.WithUser(ctx, userID, func(ctx context.Context) error {
		user, err := m.identity(ctx, userID)
		if err != nil {
			return err
		}
		out, err = m.exec.Ban(ctx, user, sanction.OriginAdmin)
		return err
	})
	return out, err
}

// Unban removes a user from the ban list on an administrator's request.
func (m *Moderator) Unban(ctx context.Context, userID int64) (out sanction.Outcome, err error) {
	err = m.store.WithUser(ctx, userID, func(ctx context.Context) error {
		out, err = m.exec.LiftBan(ctx, userID, sanction.OriginAdmin)
		return err
	})
	return out, err
}

// identity finds the freshest snapshot of a user across the collections.
func (m *Moderator) identity(ctx context.Context, userID int64) (models.Identity, error) {
	if userID == 0 {
		return models.Identity{}, fmt.Errorf("%w: user id is required", models.ErrInvalidArgument)
	}
	for _, kind := range []models.LogKind{models.LogViolating, models.LogClean} {
		logs, err := m.ledger.Logs(ctx, kind)
		if err != nil {
			return models.Identity{}, err
		}
		if id, ok := logs.Identity(userID); ok {
			return id, nil
		}
	}
	var verified models.VerifiedUsers
	if err := m.store.View(ctx, storage.VerifiedUsersCollection, &verified); err != nil {
		return models.Identity{}, err
	}
	if u, ok := verified[userID]; ok {
		return models.Identity{UserID: userID, Username: u.Username, Name: u.Name}, nil
	}
	return models.Identity{UserID: userID}, nil
}

// UserSummary collects a user's logs and sanctions. Users the engine has
// never seen are reported as not found.
func (m *Moderator) UserSummary(ctx context.Context, userID int64) (UserSummary, error) {
	sum := UserSummary{MuteThreshold: m.policy.MuteThreshold()}

	violations, err := m.ledger.Logs(ctx, models.LogViolating)
	if err != nil {
		return sum, err
	}
	clean, err := m.ledger.Logs(ctx, models.LogClean)
	if err != nil {
		return sum, err
	}
	mutes, err := m.Mutes(ctx)
	if err != nil {
		return sum, err
	}
	bans, err := m.Bans(ctx)
	if err != nil {
		return sum, err
	}
	verified, err := m.VerifiedUsers(ctx)
	if err != nil {
		return sum, err
	}

	sum.Violations = violations[userID]
	sum.Clean = clean[userID]
	sum.ViolationCount = len(sum.Violations)
	if e, ok := mutes[userID]; ok {
		sum.Mute = &e
	}
	if b, ok := bans[userID]; ok {
		sum.Ban = &b
	}
	sum.Verified = verified.Has(userID)

	if sum.ViolationCount == 0 && len(sum.Clean) == 0 && sum.Mute == nil && sum.Ban == nil && !sum.Verified {
		return sum, fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	sum.Identity, err = m.identity(ctx, userID)
	if err != nil {
		return sum, err
	}
	switch {
	case sum.Identity.Username != "" || sum.Identity.Name != "":
	case sum.Mute != nil:
		sum.Identity.Username, sum.Identity.Name = sum.Mute.Username, sum.Mute.Name
	case sum.Ban != nil:
		sum.Identity.Username, sum.Identity.Name = sum.Ban.Username, sum.Ban.Name
	}
	return sum, nil
}

// ActiveGroups returns the group registry.
func (m *Moderator) ActiveGroups(ctx context.Context) (models.ActiveGroups, error) {
	var groups models.ActiveGroups
	err := m.store.View(ctx, storage.ActiveGroupsCollection, &groups)
	return groups, err
}

// Logs returns the Violating or Clean log.
func (m *Moderator) Logs(ctx context.Context, kind models.LogKind) (models.MessageLogs, error) {
	return m.ledger.Logs(ctx, kind)
}

// Mutes returns the active mutes.
func (m *Moderator) Mutes(ctx context.Context) (models.Mutes, error) {
	var mutes models.Mutes
	err := m.store.View(ctx, storage.MutesCollection, &mutes)
	return mutes, err
}

// Bans returns the ban list.
func (m *Moderator) Bans(ctx context.Context) (models.Bans, error) {
	var bans models.Bans
	err := m.store.View(ctx, storage.BansCollection, &bans)
	return bans, err
}

// VerifiedUsers returns the users who started the bot privately.
func (m *Moderator) VerifiedUsers(ctx context.Context) (models.VerifiedUsers, error) {
	var verified models.VerifiedUsers
	err := m.store.View(ctx, storage.VerifiedUsersCollection, &verified)
	return verified, err
}
