package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
)

// allowedUpdates are the update kinds the handlers consume.
var allowedUpdates = []string{"message", "chat_member", "my_chat_member"}

// BotService represents the Telegram bot service
type BotService struct {
	Bot     *telego.Bot
	Handler *th.BotHandler
}

// Start starts the bot handler
func (b *BotService) Start() {
	if err := b.Handler.Start(); err != nil {
		logger.Errorf("Bot handler stopped: %v", err)
	}
}

// Stop stops the bot handler
func (b *BotService) Stop() {
	if err := b.Handler.Stop(); err != nil {
		logger.Warningf("Failed to stop bot handler: %v", err)
	}
}

// NewBot creates the API client.
func NewBot(cfg *config.Config) (*telego.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	var opts []telego.BotOption
	if strings.EqualFold(cfg.Logger.Level, "DEBUG") {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	bot, err := telego.NewBot(cfg.Bot.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return bot, nil
}

// Initialize sets up update delivery in the configured mode. The webhook
// server is nil in polling mode.
func Initialize(ctx context.Context, cfg *config.Config, bot *telego.Bot) (*BotService, *WebhookServer, error) {
	setLocalizedCommands(ctx, bot)

	// Delete any existing webhook
	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	var (
		bh     *th.BotHandler
		server *WebhookServer
		err    error
	)
	if cfg.Bot.Mode == "webhook" {
		secretToken := "secure_webhook_token_" + cfg.Bot.Token[len(cfg.Bot.Token)-6:]
		bh, server, err = SetupWebhook(ctx, bot, cfg.Bot.Webhook, secretToken)
	} else {
		bh, err = SetupPolling(ctx, bot)
	}
	if err != nil {
		return nil, nil, err
	}

	return &BotService{
		Bot:     bot,
		Handler: bh,
	}, server, nil
}

// setLocalizedCommands sets bot commands in different languages
func setLocalizedCommands(ctx context.Context, bot *telego.Bot) {
	commandKeys := []struct {
		Command string
		DescKey string
	}{
		{Command: "start", DescKey: "cmd_desc_start"},
		{Command: "start_antijudibot", DescKey: "cmd_desc_on"},
		{Command: "stop_antijudibot", DescKey: "cmd_desc_off"},
		{Command: "status_antijudibot", DescKey: "cmd_desc_status"},
	}

	commandsFor := func(lang string) []telego.BotCommand {
		var commands []telego.BotCommand
		for _, cmd := range commandKeys {
			commands = append(commands, telego.BotCommand{
				Command:     cmd.Command,
				Description: models.GetTranslation(lang, cmd.DescKey),
			})
		}
		return commands
	}

	for _, lang := range []string{models.LangIndonesian, models.LangEnglish} {
		err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
			Commands:     commandsFor(lang),
			LanguageCode: lang,
		})
		if err != nil {
			logger.Warningf("Failed to set bot commands for %s: %v", models.GetLanguageName(lang), err)
		}
	}

	// Set default commands (without language code) in Indonesian
	if err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commandsFor(models.LangIndonesian),
	}); err != nil {
		logger.Warningf("Failed to set default bot commands: %v", err)
	}
}
