package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
)

// Telegram implements Gateway on top of the Bot API.
type Telegram struct {
	bot         *telego.Bot
	botUsername string
}

// NewTelegram resolves the bot username used for deep links.
func NewTelegram(ctx context.Context, bot *telego.Bot) (*Telegram, error) {
	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	return &Telegram{bot: bot, botUsername: me.Username}, nil
}

// BotUsername returns the bot's handle without @.
func (t *Telegram) BotUsername() string {
	return t.botUsername
}

func (t *Telegram) StartLink(param string) string {
	if param == "" {
		return fmt.Sprintf("https://t.me/%s", t.botUsername)
	}
	return fmt.Sprintf("https://t.me/%s?start=%s", t.botUsername, param)
}

func wrap(method string, err error) error {
	metrics.GatewayCalls.WithLabelValues(method, metrics.Result(err)).Inc()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", models.ErrGatewayUnavailable, method, err)
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string, buttons ...Button) error {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	}
	if len(buttons) > 0 {
		row := make([]telego.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, telego.InlineKeyboardButton{Text: b.Text, URL: b.URL})
		}
		params.ReplyMarkup = &telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{row},
		}
	}
	_, err := t.bot.SendMessage(ctx, params)
	return wrap("sendMessage", err)
}

func (t *Telegram) DeleteMessage(ctx context.Context, groupID int64, messageID int) error {
	err := t.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    telego.ChatID{ID: groupID},
		MessageID: messageID,
	})
	return wrap("deleteMessage", err)
}

// permissions returns a permission set with every flag set to allowed.
func permissions(allowed bool) telego.ChatPermissions {
	return telego.ChatPermissions{
		CanSendMessages:       telego.ToPtr(allowed),
		CanSendAudios:         telego.ToPtr(allowed),
		CanSendDocuments:      telego.ToPtr(allowed),
		CanSendPhotos:         telego.ToPtr(allowed),
		CanSendVideos:         telego.ToPtr(allowed),
		CanSendVideoNotes:     telego.ToPtr(allowed),
		CanSendVoiceNotes:     telego.ToPtr(allowed),
		CanSendPolls:          telego.ToPtr(allowed),
		CanSendOtherMessages:  telego.ToPtr(allowed),
		CanAddWebPagePreviews: telego.ToPtr(allowed),
		CanInviteUsers:        telego.ToPtr(allowed),
	}
}

func (t *Telegram) Restrict(ctx context.Context, groupID, userID int64, until time.Time) error {
	params := &telego.RestrictChatMemberParams{
		ChatID:      telego.ChatID{ID: groupID},
		UserID:      userID,
		Permissions: permissions(false),
	}
	if !until.IsZero() {
		params.UntilDate = until.Unix()
	}
	err := t.bot.RestrictChatMember(ctx, params)
	if err == nil {
		logger.Infof("Restricted user %d in chat %d until %v", userID, groupID, until)
	}
	return wrap("restrictChatMember", err)
}

func (t *Telegram) Unrestrict(ctx context.Context, groupID, userID int64) error {
	err := t.bot.RestrictChatMember(ctx, &telego.RestrictChatMemberParams{
		ChatID:      telego.ChatID{ID: groupID},
		UserID:      userID,
		Permissions: permissions(true),
	})
	if err == nil {
		logger.Infof("Unrestricted user %d in chat %d", userID, groupID)
	}
	return wrap("restrictChatMember", err)
}

func (t *Telegram) Ban(ctx context.Context, groupID, userID int64) error {
	err := t.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: userID,
	})
	return wrap("banChatMember", err)
}

func (t *Telegram) Unban(ctx context.Context, groupID, userID int64) error {
	err := t.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       telego.ChatID{ID: groupID},
		UserID:       userID,
		OnlyIfBanned: true,
	})
	return wrap("unbanChatMember", err)
}

func (t *Telegram) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	member, err := t.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: userID,
	})
	if err != nil {
		// the API answers "user not found" for users that never joined
		if strings.Contains(strings.ToLower(err.Error()), "user not found") {
			metrics.GatewayCalls.WithLabelValues("getChatMember", "ok").Inc()
			return false, nil
		}
		return false, wrap("getChatMember", err)
	}
	metrics.GatewayCalls.WithLabelValues("getChatMember", "ok").Inc()
	return member.MemberIsMember(), nil
}

func (t *Telegram) ListAdmins(ctx context.Context, groupID int64) ([]models.Identity, error) {
	admins, err := t.bot.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{
		ChatID: telego.ChatID{ID: groupID},
	})
	if err != nil {
		return nil, wrap("getChatAdministrators", err)
	}
	metrics.GatewayCalls.WithLabelValues("getChatAdministrators", "ok").Inc()

	identities := make([]models.Identity, 0, len(admins))
	for _, admin := range admins {
		user := admin.MemberUser()
		if user.IsBot {
			continue
		}
		identities = append(identities, IdentityOf(user))
	}
	return identities, nil
}

// IsBotAdmin reports whether the bot itself administers a group.
func (t *Telegram) IsBotAdmin(ctx context.Context, groupID int64) (bool, error) {
	member, err := t.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: groupID},
		UserID: t.bot.ID(),
	})
	if err != nil {
		return false, wrap("getChatMember", err)
	}
	metrics.GatewayCalls.WithLabelValues("getChatMember", "ok").Inc()
	status := member.MemberStatus()
	return status == telego.MemberStatusAdministrator || status == telego.MemberStatusCreator, nil
}

// GroupLink returns the add-to-group deep link.
func (t *Telegram) GroupLink() string {
	return fmt.Sprintf("https://t.me/%s?startgroup=true", t.botUsername)
}

// IdentityOf snapshots a Telegram user.
func IdentityOf(user telego.User) models.Identity {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return models.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Name:     name,
	}
}
