package service

import (
	"context"
	"time"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/storage"
)

// VerifyParam is the /start parameter of the verification link.
const VerifyParam = "verifikasi"

// Join outcomes.
const (
	JoinIgnored    = "ignored"
	JoinRebanned   = "rebanned"
	JoinMuted      = "muted"
	JoinRestricted = "restricted"
	JoinAllowed    = "allowed"
)

// VerifyUser records that a user started the bot privately and lifts the
// join restriction in every active group the user belongs to. Groups where
// the user is under an active mute keep the restriction. It reports
// whether the user was newly verified.
func (m *Moderator) VerifyUser(ctx context.Context, user models.Identity) (bool, error) {
	fresh := false
	err := m.store.WithUser(ctx, user.UserID, func(ctx context.Context) error {
		err := m.store.Update(ctx, func(tx *storage.Tx) error {
			var verified models.VerifiedUsers
			if err := tx.Load(storage.VerifiedUsersCollection, &verified); err != nil {
				return err
			}
			if verified.Has(user.UserID) {
				return storage.ErrNoChange
			}
			verified[user.UserID] = models.VerifiedUser{
				Username:   user.Username,
				Name:       user.Name,
				VerifiedAt: m.now(),
			}
			fresh = true
			return tx.Store(storage.VerifiedUsersCollection, verified)
		}, storage.VerifiedUsersCollection)
		if err != nil {
			return err
		}

		groups, err := m.ActiveGroups(ctx)
		if err != nil {
			return err
		}
		mutes, err := m.Mutes(ctx)
		if err != nil {
			return err
		}
		bans, err := m.Bans(ctx)
		if err != nil {
			return err
		}
		if bans.Has(user.UserID) {
			return nil
		}
		mute, muted := mutes[user.UserID]
		if muted && mute.Due(m.now()) {
			muted = false
		}

		for _, groupID := range groups.IDs() {
			if _, ok := mute.Groups[groupID]; muted && ok {
				continue
			}
			member, err := m.gw.IsMember(ctx, groupID, user.UserID)
			if err != nil || !member {
				continue
			}
			if err := m.gw.Unrestrict(ctx, groupID, user.UserID); err != nil {
				logger.Warningf("Failed to lift join restriction of user %d in group %d: %v", user.UserID, groupID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if fresh {
		logger.Infof("User %d verified", user.UserID)
	}
	return fresh, nil
}

// HandleMemberJoin screens a user joining an active group: banned users
// are banned again, users under an active mute are restricted until it
// ends, and unverified users are restricted until they verify.
func (m *Moderator) HandleMemberJoin(ctx context.Context, groupID int64, user models.Identity) (string, error) {
	group, active, err := m.GroupStatus(ctx, groupID)
	if err != nil {
		return JoinIgnored, err
	}
	if !active || user.UserID == 0 {
		return JoinIgnored, nil
	}

	result := JoinAllowed
	err = m.store.WithUser(ctx, user.UserID, func(ctx context.Context) error {
		bans, err := m.Bans(ctx)
		if err != nil {
			return err
		}
		if bans.Has(user.UserID) {
			if err := m.gw.Ban(ctx, groupID, user.UserID); err != nil {
				return err
			}
			result = JoinRebanned
			logger.Infof("Banned user %d rejoined group %s, banned again", user.UserID, group)
			m.notify.Group(ctx, groupID, "ban_rejoin_group", user.DisplayName())
			m.notify.Direct(ctx, user.UserID, "ban_rejoin_direct")
			return nil
		}

		restricted, err := m.exec.ExtendMute(ctx, user.UserID, groupID, group.GroupName)
		if err != nil {
			return err
		}
		if restricted {
			result = JoinMuted
			return nil
		}

		verified, err := m.notify.IsVerified(ctx, user.UserID)
		if err != nil {
			return err
		}
		if verified {
			return nil
		}
		if err := m.gw.Restrict(ctx, groupID, user.UserID, time.Time{}); err != nil {
			return err
		}
		result = JoinRestricted
		button := gateway.Button{
			Text: m.notify.Text("verify_button"),
			URL:  m.gw.StartLink(VerifyParam),
		}
		if err := m.gw.SendMessage(ctx, groupID, m.notify.Text("verify_welcome_member", user.DisplayName()), button); err != nil {
			logger.Warningf("Failed to send verification prompt in group %d: %v", groupID, err)
		}
		return nil
	})
	if err != nil {
		return JoinIgnored, err
	}
	return result, nil
}
