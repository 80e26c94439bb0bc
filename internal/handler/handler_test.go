package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway/gatewaytest"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/service"
	"tg-antijudi/internal/storage"
)

const groupID = int64(-100777)

var (
	owner  = telego.User{ID: 10, FirstName: "Budi", Username: "budi"}
	member = telego.User{ID: 20, FirstName: "Joko"}
	group  = telego.Chat{ID: groupID, Type: "supergroup", Title: "Warga RT 05"}
)

type fakePlatform struct {
	*gatewaytest.Recorder
	botAdmin bool
}

func (f *fakePlatform) BotUsername() string { return "antijudi_test_bot" }
func (f *fakePlatform) GroupLink() string   { return "https://t.me/antijudi_test_bot?startgroup=true" }
func (f *fakePlatform) IsBotAdmin(context.Context, int64) (bool, error) {
	return f.botAdmin, nil
}

type wordClassifier struct{}

func (wordClassifier) Classify(_ context.Context, text string) (bool, error) {
	return strings.Contains(text, "slot"), nil
}

func setup(t *testing.T) (*Handler, *fakePlatform, *service.Moderator) {
	t.Helper()
	store := storage.NewCoordinator(storage.NewMemoryBackend(), config.RetryConfig{MaxRetries: 3})
	platform := &fakePlatform{Recorder: gatewaytest.New(), botAdmin: true}
	platform.SetAdmins(groupID, gatewayIdentity(owner))

	cfg := config.Default()
	mod, err := service.New(cfg, store, platform, wordClassifier{})
	require.NoError(t, err)
	return New(mod, platform), platform, mod
}

func gatewayIdentity(u telego.User) models.Identity {
	return models.Identity{UserID: u.ID, Username: u.Username, Name: u.FirstName}
}

func command(from telego.User, chat telego.Chat, text string) telego.Message {
	return telego.Message{MessageID: 1, From: &from, Chat: chat, Text: text, Date: time.Now().Unix()}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"/start", "start", []string{}, true},
		{"/start verifikasi", "start", []string{"verifikasi"}, true},
		{"/Start_AntiJudiBot@antijudi_test_bot", "start_antijudibot", []string{}, true},
		{"/start@other_bot", "", nil, false},
		{"hello /start", "", nil, false},
		{"/", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := parseCommand(tt.text, "antijudi_test_bot")
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.cmd, cmd, tt.text)
		if tt.ok {
			assert.Equal(t, tt.args, args, tt.text)
		}
	}
}

func TestActivationStampUsesWIB(t *testing.T) {
	t.Parallel()
	date, clock := activationStamp(time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-06-02", date)
	assert.Equal(t, "03:30:00 WIB", clock)
}

func TestMessageOfUsesCaption(t *testing.T) {
	t.Parallel()
	msg := messageOf(telego.Message{MessageID: 5, From: &member, Chat: group, Caption: "promo slot", Date: 1700000000})
	assert.Equal(t, "promo slot", msg.Text)
	assert.Equal(t, groupID, msg.GroupID)
	assert.Equal(t, "Warga RT 05", msg.GroupName)
	assert.Equal(t, member.ID, msg.Sender.UserID)
	assert.Equal(t, int64(1700000000), msg.SentAt.Unix())
}

func TestJoined(t *testing.T) {
	t.Parallel()
	left := &telego.ChatMemberLeft{Status: telego.MemberStatusLeft, User: member}
	in := &telego.ChatMemberMember{Status: telego.MemberStatusMember, User: member}
	assert.True(t, joined(left, in))
	assert.False(t, joined(in, in))
	assert.False(t, joined(in, left))
}

func TestActivateStatusDeactivate(t *testing.T) {
	t.Parallel()
	h, platform, mod := setup(t)
	ctx := t.Context()

	ok, err := h.handleCommand(ctx, command(owner, group, "/start_antijudibot"))
	require.NoError(t, err)
	require.True(t, ok)

	info, active, err := mod.GroupStatus(ctx, groupID)
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, "@budi", info.ActivatedBy)
	assert.Equal(t, "Warga RT 05", info.GroupName)

	sent := platform.Calls("SendMessage")
	require.Len(t, sent, 2)
	require.Len(t, sent[1].Buttons, 1)
	assert.Equal(t, "https://t.me/antijudi_test_bot?start=verifikasi", sent[1].Buttons[0].URL)

	platform.Reset()
	_, err = h.handleCommand(ctx, command(owner, group, "/status_antijudibot"))
	require.NoError(t, err)
	msgs := platform.MessagesTo(groupID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "@budi")
	assert.Contains(t, msgs[0], "WIB")

	platform.Reset()
	_, err = h.handleCommand(ctx, command(owner, group, "/stop_antijudibot"))
	require.NoError(t, err)
	_, active, err = mod.GroupStatus(ctx, groupID)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = h.handleCommand(ctx, command(owner, group, "/stop_antijudibot"))
	require.NoError(t, err)
	msgs = platform.MessagesTo(groupID)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.GetTranslation(models.LangIndonesian, "group_not_active"), msgs[1])
}

func TestGroupCommandsRequireAdmin(t *testing.T) {
	t.Parallel()
	h, platform, mod := setup(t)

	_, err := h.handleCommand(t.Context(), command(member, group, "/start_antijudibot"))
	require.NoError(t, err)
	_, active, err := mod.GroupStatus(t.Context(), groupID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, []string{models.GetTranslation(models.LangIndonesian, "cmd_activate_admin")}, platform.MessagesTo(groupID))
}

func TestActivateRequiresBotAdmin(t *testing.T) {
	t.Parallel()
	h, platform, mod := setup(t)
	platform.botAdmin = false

	_, err := h.handleCommand(t.Context(), command(owner, group, "/start_antijudibot"))
	require.NoError(t, err)
	_, active, err := mod.GroupStatus(t.Context(), groupID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, []string{models.GetTranslation(models.LangIndonesian, "bot_not_admin")}, platform.MessagesTo(groupID))
}

func TestGroupCommandInPrivateChat(t *testing.T) {
	t.Parallel()
	h, platform, _ := setup(t)
	private := telego.Chat{ID: owner.ID, Type: "private"}

	_, err := h.handleCommand(t.Context(), command(owner, private, "/status_antijudibot"))
	require.NoError(t, err)
	msgs := platform.MessagesTo(owner.ID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "/status_antijudibot")
}

func TestStartVerifiesUser(t *testing.T) {
	t.Parallel()
	h, platform, mod := setup(t)
	private := telego.Chat{ID: member.ID, Type: "private"}

	_, err := h.handleCommand(t.Context(), command(member, private, "/start verifikasi"))
	require.NoError(t, err)

	verified, err := mod.VerifiedUsers(t.Context())
	require.NoError(t, err)
	assert.True(t, verified.Has(member.ID))
	assert.Equal(t, []string{models.GetTranslation(models.LangIndonesian, "verify_success")}, platform.MessagesTo(member.ID))
}

func TestStartInPrivateOffersGroupLink(t *testing.T) {
	t.Parallel()
	h, platform, _ := setup(t)
	private := telego.Chat{ID: member.ID, Type: "private"}

	_, err := h.handleCommand(t.Context(), command(member, private, "/start"))
	require.NoError(t, err)
	sent := platform.Calls("SendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Joko")
	require.Len(t, sent[0].Buttons, 1)
	assert.Equal(t, "https://t.me/antijudi_test_bot?startgroup=true", sent[0].Buttons[0].URL)
}

func TestIncomingViolationIsDeleted(t *testing.T) {
	t.Parallel()
	h, platform, mod := setup(t)
	_, _, err := mod.ActivateGroup(t.Context(), groupID, group.Title, gatewayIdentity(owner))
	require.NoError(t, err)
	platform.Reset()

	msg := command(member, group, "daftar slot gacor sekarang")
	msg.MessageID = 42
	ok, err := h.handleCommand(t.Context(), msg)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, h.handleIncomingMessage(t.Context(), msg))

	deletes := platform.Calls("DeleteMessage")
	require.Len(t, deletes, 1)
	assert.Equal(t, 42, deletes[0].MessageID)
}

func TestBotAddedSendsWelcome(t *testing.T) {
	t.Parallel()
	h, platform, _ := setup(t)
	bot := telego.User{ID: 99, IsBot: true}

	update := telego.Update{MyChatMember: &telego.ChatMemberUpdated{
		Chat:          group,
		From:          owner,
		OldChatMember: &telego.ChatMemberLeft{Status: telego.MemberStatusLeft, User: bot},
		NewChatMember: &telego.ChatMemberMember{Status: telego.MemberStatusMember, User: bot},
	}}
	require.NoError(t, h.handleMyChatMemberUpdate(t.Context(), update))
	assert.Equal(t, []string{models.GetTranslation(models.LangIndonesian, "bot_added_welcome")}, platform.MessagesTo(groupID))
}
