package handler

import (
	"context"

	"github.com/mymmrac/telego"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
)

// handleIncomingMessage moderates ordinary group messages.
func (h *Handler) handleIncomingMessage(ctx context.Context, message telego.Message) error {
	if !isGroupChat(message.Chat) || message.From == nil || message.From.IsBot {
		return nil
	}
	msg := messageOf(message)
	if msg.Text == "" {
		return nil
	}

	res, err := h.mod.HandleMessage(ctx, msg)
	if err != nil {
		logger.Errorf("Failed to moderate message %d in chat %d: %v", message.MessageID, message.Chat.ID, err)
		return nil
	}
	logger.Debugf("Message %d from user %d in chat %d: %s", message.MessageID, msg.Sender.UserID, message.Chat.ID, res.Outcome)
	return nil
}

// handleChatMemberUpdate screens users joining a group.
func (h *Handler) handleChatMemberUpdate(ctx context.Context, update telego.Update) error {
	cm := update.ChatMember
	if cm == nil {
		return nil
	}
	user := cm.NewChatMember.MemberUser()
	if user.IsBot {
		return nil
	}
	if !joined(cm.OldChatMember, cm.NewChatMember) {
		return nil
	}

	result, err := h.mod.HandleMemberJoin(ctx, cm.Chat.ID, gateway.IdentityOf(user))
	if err != nil {
		logger.Errorf("Failed to screen user %d joining chat %d: %v", user.ID, cm.Chat.ID, err)
		return nil
	}
	logger.Infof("User %d joined chat %d: %s", user.ID, cm.Chat.ID, result)
	return nil
}

// handleMyChatMemberUpdate welcomes the group when the bot is added.
func (h *Handler) handleMyChatMemberUpdate(ctx context.Context, update telego.Update) error {
	cm := update.MyChatMember
	if cm == nil || !isGroupChat(cm.Chat) {
		return nil
	}
	logger.Infof("Bot status in chat %d changed from %s to %s",
		cm.Chat.ID, cm.OldChatMember.MemberStatus(), cm.NewChatMember.MemberStatus())
	if !joined(cm.OldChatMember, cm.NewChatMember) {
		return nil
	}
	if err := h.reply(ctx, cm.Chat.ID, "bot_added_welcome"); err != nil {
		logger.Warningf("Failed to send welcome message to chat %d: %v", cm.Chat.ID, err)
	}
	return nil
}

// joined reports a transition from outside the group to inside it.
func joined(old, current telego.ChatMember) bool {
	switch old.MemberStatus() {
	case telego.MemberStatusLeft, telego.MemberStatusBanned:
	default:
		return false
	}
	switch current.MemberStatus() {
	case telego.MemberStatusMember, telego.MemberStatusAdministrator, telego.MemberStatusRestricted:
		return current.MemberIsMember()
	}
	return false
}
