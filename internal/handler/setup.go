package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

// SetupMessageHandlers configures all bot message and update handlers
func (h *Handler) SetupMessageHandlers(bh *th.BotHandler) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		ok, err := h.handleCommand(ctx.Context(), message)
		if ok {
			return err
		}
		return h.handleIncomingMessage(ctx.Context(), message)
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.handleChatMemberUpdate(ctx.Context(), update)
	}, th.AnyChatMember())

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.handleMyChatMemberUpdate(ctx.Context(), update)
	}, th.AnyMyChatMember())
}
