package notice

import (
	"context"
	"fmt"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/storage"
)

// Notifier sends the localized group and direct notices. Delivery failures
// are logged and never fail the operation that triggered them.
type Notifier struct {
	gw    gateway.Gateway
	store *storage.Coordinator
	lang  string
}

func New(gw gateway.Gateway, store *storage.Coordinator, lang string) *Notifier {
	return &Notifier{gw: gw, store: store, lang: lang}
}

// Text renders a notice.
func (n *Notifier) Text(key string, args ...any) string {
	text := models.GetTranslation(n.lang, key)
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Group posts a notice in a group.
func (n *Notifier) Group(ctx context.Context, groupID int64, key string, args ...any) bool {
	if err := n.gw.SendMessage(ctx, groupID, n.Text(key, args...)); err != nil {
		logger.Warningf("Failed to send %s notice to group %d: %v", key, groupID, err)
		return false
	}
	return true
}

// Direct sends a private notice if the user has verified with the bot;
// the platform rejects messages to anyone else.
func (n *Notifier) Direct(ctx context.Context, userID int64, key string, args ...any) bool {
	verified, err := n.IsVerified(ctx, userID)
	if err != nil {
		logger.Warningf("Failed to check verification of user %d: %v", userID, err)
		return false
	}
	if !verified {
		logger.Debugf("User %d is not verified, skipping %s notice", userID, key)
		return false
	}
	if err := n.gw.SendMessage(ctx, userID, n.Text(key, args...)); err != nil {
		logger.Warningf("Failed to send %s notice to user %d: %v", key, userID, err)
		return false
	}
	return true
}

// IsVerified reports whether a user started the bot privately.
func (n *Notifier) IsVerified(ctx context.Context, userID int64) (bool, error) {
	var verified models.VerifiedUsers
	if err := n.store.View(ctx, storage.VerifiedUsersCollection, &verified); err != nil {
		return false, err
	}
	return verified.Has(userID), nil
}
