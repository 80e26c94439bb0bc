package notice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway/gatewaytest"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/notice"
	"tg-antijudi/internal/storage"
)

func setup(t *testing.T, lang string) (*notice.Notifier, *gatewaytest.Recorder) {
	t.Helper()
	store := storage.NewCoordinator(storage.NewMemoryBackend(), config.RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
	require.NoError(t, store.Update(t.Context(), func(tx *storage.Tx) error {
		return tx.Store(storage.VerifiedUsersCollection, models.VerifiedUsers{10: {Username: "verified"}})
	}, storage.VerifiedUsersCollection))
	gw := gatewaytest.New()
	return notice.New(gw, store, lang), gw
}

func TestTextIsLocalized(t *testing.T) {
	t.Parallel()
	id, _ := setup(t, models.LangIndonesian)
	en, _ := setup(t, models.LangEnglish)
	assert.Contains(t, id.Text("warn_group", "@x"), "Peringatan kepada @x")
	assert.Contains(t, en.Text("warn_group", "@x"), "Warning to @x")
	assert.Equal(t, "no_such_key", en.Text("no_such_key"))
}

func TestDirectOnlyReachesVerifiedUsers(t *testing.T) {
	t.Parallel()
	n, gw := setup(t, models.LangIndonesian)

	assert.True(t, n.Direct(t.Context(), 10, "unmute_admin_direct"))
	assert.False(t, n.Direct(t.Context(), 11, "unmute_admin_direct"))
	assert.Len(t, gw.MessagesTo(10), 1)
	assert.Empty(t, gw.MessagesTo(11))
}

func TestDeliveryFailureIsReported(t *testing.T) {
	t.Parallel()
	n, gw := setup(t, models.LangIndonesian)
	gw.Fail("SendMessage", -100)

	assert.False(t, n.Group(t.Context(), -100, "mute_admin_group", "@x"))
	assert.True(t, n.Group(t.Context(), -200, "mute_admin_group", "@x"))
}
