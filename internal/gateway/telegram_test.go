package gateway

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/models"
)

func TestIdentityOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		models.Identity{UserID: 7, Username: "budi", Name: "Budi Santoso"},
		IdentityOf(telego.User{ID: 7, Username: "budi", FirstName: "Budi", LastName: "Santoso"}))
	assert.Equal(t,
		models.Identity{UserID: 8, Name: "Ani"},
		IdentityOf(telego.User{ID: 8, FirstName: "Ani"}))
}

func TestPermissions(t *testing.T) {
	t.Parallel()
	for _, allowed := range []bool{true, false} {
		p := permissions(allowed)
		for _, flag := range []*bool{
			p.CanSendMessages, p.CanSendAudios, p.CanSendDocuments, p.CanSendPhotos,
			p.CanSendVideos, p.CanSendVideoNotes, p.CanSendVoiceNotes, p.CanSendPolls,
			p.CanSendOtherMessages, p.CanAddWebPagePreviews, p.CanInviteUsers,
		} {
			require.NotNil(t, flag)
			assert.Equal(t, allowed, *flag)
		}
	}
}

func TestLinks(t *testing.T) {
	t.Parallel()
	tg := &Telegram{botUsername: "AntiJudiBot"}
	assert.Equal(t, "https://t.me/AntiJudiBot?start=verifikasi", tg.StartLink("verifikasi"))
	assert.Equal(t, "https://t.me/AntiJudiBot", tg.StartLink(""))
	assert.Equal(t, "https://t.me/AntiJudiBot?startgroup=true", tg.GroupLink())
	assert.Equal(t, "AntiJudiBot", tg.BotUsername())
}

func TestWrapMarksGatewayErrors(t *testing.T) {
	t.Parallel()
	assert.NoError(t, wrap("sendMessage", nil))
	err := wrap("banChatMember", assert.AnError)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}
