package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-antijudi/internal/logger"
)

// SetupPolling receives updates through getUpdates.
func SetupPolling(ctx context.Context, bot *telego.Bot) (*th.BotHandler, error) {
	updates, err := bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start long polling: %w", err)
	}
	logger.Infof("Receiving updates via long polling")

	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot handler: %w", err)
	}
	return bh, nil
}
