package gateway

import (
	"context"
	"time"

	"tg-antijudi/internal/models"
)

// Button is an inline URL button attached to a message.
type Button struct {
	Text string
	URL  string
}

// Gateway is the messaging platform as seen by the engine. Every method is
// a single remote call; failures wrap models.ErrGatewayUnavailable.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons ...Button) error
	DeleteMessage(ctx context.Context, groupID int64, messageID int) error
	// Restrict removes every send permission until the given time. A zero
	// time restricts until lifted.
	Restrict(ctx context.Context, groupID, userID int64, until time.Time) error
	Unrestrict(ctx context.Context, groupID, userID int64) error
	Ban(ctx context.Context, groupID, userID int64) error
	Unban(ctx context.Context, groupID, userID int64) error
	// IsMember reports whether the user currently belongs to the group,
	// including restricted members.
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	ListAdmins(ctx context.Context, groupID int64) ([]models.Identity, error)
	// StartLink returns a link that opens a private chat with the bot and
	// sends /start with the given parameter.
	StartLink(param string) string
}
