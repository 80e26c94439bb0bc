package handler

import (
	"context"
	"errors"

	"github.com/mymmrac/telego"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/service"
)

// handleCommand dispatches the bot commands. It reports false for
// anything that is not one of them.
func (h *Handler) handleCommand(c context.Context, message telego.Message) (bool, error) {
	if message.From == nil || message.From.IsBot {
		return false, nil
	}
	cmd, args, ok := parseCommand(message.Text, h.tg.BotUsername())
	if !ok {
		return false, nil
	}

	var err error
	switch cmd {
	case "start":
		err = h.handleStart(c, message, args)
	case "start_antijudibot":
		err = h.groupCommand(c, message, "cmd_activate_admin", h.handleActivate)
	case "stop_antijudibot":
		err = h.groupCommand(c, message, "cmd_deactivate_admin", h.handleDeactivate)
	case "status_antijudibot":
		err = h.groupCommand(c, message, "cmd_status_admin", h.handleStatus)
	default:
		return false, nil
	}
	if err != nil {
		logger.Errorf("Command /%s in chat %d failed: %v", cmd, message.Chat.ID, err)
		if replyErr := h.reply(c, message.Chat.ID, "operation_failed"); replyErr != nil {
			logger.Warningf("Failed to report error in chat %d: %v", message.Chat.ID, replyErr)
		}
	}
	return true, nil
}

// handleStart greets private users and records them as verified. With the
// verification parameter the join restriction is lifted as well.
func (h *Handler) handleStart(ctx context.Context, message telego.Message, args []string) error {
	if !isGroupChat(message.Chat) && message.Chat.Type != "private" {
		return nil
	}
	if isGroupChat(message.Chat) {
		return h.reply(ctx, message.Chat.ID, "start_in_group")
	}

	user := gateway.IdentityOf(*message.From)
	if _, err := h.mod.VerifyUser(ctx, user); err != nil {
		return err
	}
	if len(args) > 0 && args[0] == service.VerifyParam {
		return h.reply(ctx, message.Chat.ID, "verify_success")
	}
	button := gateway.Button{Text: h.text("start_add_to_group_button"), URL: h.tg.GroupLink()}
	return h.replyButton(ctx, message.Chat.ID, button, "start_private", h.userName(user))
}

// groupCommand runs an admin-only group command.
func (h *Handler) groupCommand(ctx context.Context, message telego.Message, deniedKey string,
	run func(ctx context.Context, message telego.Message) error) error {
	if !isGroupChat(message.Chat) {
		cmd, _, _ := parseCommand(message.Text, h.tg.BotUsername())
		return h.reply(ctx, message.Chat.ID, "cmd_group_only", "/"+cmd)
	}
	isAdmin, err := h.mod.IsGroupAdmin(ctx, message.Chat.ID, message.From.ID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return h.reply(ctx, message.Chat.ID, deniedKey)
	}
	return run(ctx, message)
}

func (h *Handler) handleActivate(ctx context.Context, message telego.Message) error {
	botAdmin, err := h.tg.IsBotAdmin(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	if !botAdmin {
		return h.reply(ctx, message.Chat.ID, "bot_not_admin")
	}

	by := gateway.IdentityOf(*message.From)
	_, activated, err := h.mod.ActivateGroup(ctx, message.Chat.ID, message.Chat.Title, by)
	if err != nil {
		return err
	}
	if !activated {
		return h.reply(ctx, message.Chat.ID, "group_already_active")
	}
	if err := h.reply(ctx, message.Chat.ID, "group_activated"); err != nil {
		return err
	}
	button := gateway.Button{Text: h.text("verify_button"), URL: h.tg.StartLink(service.VerifyParam)}
	return h.replyButton(ctx, message.Chat.ID, button, "verify_prompt_group")
}

func (h *Handler) handleDeactivate(ctx context.Context, message telego.Message) error {
	err := h.mod.DeactivateGroup(ctx, message.Chat.ID)
	if errors.Is(err, models.ErrNotFound) {
		return h.reply(ctx, message.Chat.ID, "group_not_active")
	}
	if err != nil {
		return err
	}
	return h.reply(ctx, message.Chat.ID, "group_deactivated")
}

func (h *Handler) handleStatus(ctx context.Context, message telego.Message) error {
	info, active, err := h.mod.GroupStatus(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	if !active {
		return h.reply(ctx, message.Chat.ID, "group_status_inactive")
	}
	date, clock := activationStamp(info.ActivatedAt)
	return h.reply(ctx, message.Chat.ID, "group_status_active", info.ActivatedBy, date, clock)
}
