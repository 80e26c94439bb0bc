package handler

import (
	"context"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/service"
)

// Platform is the part of the Telegram gateway the handlers need beyond
// the engine.
type Platform interface {
	gateway.Gateway
	BotUsername() string
	GroupLink() string
	IsBotAdmin(ctx context.Context, groupID int64) (bool, error)
}

// Handler turns Telegram updates into Moderator calls.
type Handler struct {
	mod *service.Moderator
	tg  Platform
}

func New(mod *service.Moderator, tg Platform) *Handler {
	return &Handler{mod: mod, tg: tg}
}

func (h *Handler) text(key string, args ...any) string {
	return h.mod.Notifier().Text(key, args...)
}

func (h *Handler) reply(ctx context.Context, chatID int64, key string, args ...any) error {
	return h.tg.SendMessage(ctx, chatID, h.text(key, args...))
}

func (h *Handler) replyButton(ctx context.Context, chatID int64, button gateway.Button, key string, args ...any) error {
	return h.tg.SendMessage(ctx, chatID, h.text(key, args...), button)
}

func (h *Handler) userName(user models.Identity) string {
	if user.Username == "" && user.Name == "" {
		return h.text("default_user_name")
	}
	return user.DisplayName()
}
