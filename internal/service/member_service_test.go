package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/service"
)

func TestJoinRestrictsUnverifiedUser(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA)

	result, err := f.mod.HandleMemberJoin(t.Context(), groupA, spammer)
	require.NoError(t, err)
	assert.Equal(t, service.JoinRestricted, result)

	restricts := f.gw.Calls("Restrict")
	require.Len(t, restricts, 1)
	assert.True(t, restricts[0].Until.IsZero())

	prompts := f.gw.Calls("SendMessage")
	require.Len(t, prompts, 1)
	require.Len(t, prompts[0].Buttons, 1)
	assert.Equal(t, "https://t.me/antijudi_test_bot?start=verifikasi", prompts[0].Buttons[0].URL)
}

func TestJoinIgnoresInactiveGroup(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA)

	result, err := f.mod.HandleMemberJoin(t.Context(), groupB, spammer)
	require.NoError(t, err)
	assert.Equal(t, service.JoinIgnored, result)
	assert.Empty(t, f.gw.Calls())
}

func TestJoinAllowsVerifiedUser(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA)
	_, err := f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)
	f.gw.Reset()

	result, err := f.mod.HandleMemberJoin(t.Context(), groupA, spammer)
	require.NoError(t, err)
	assert.Equal(t, service.JoinAllowed, result)
	assert.Empty(t, f.gw.Calls("Restrict", "Ban", "SendMessage"))
}

func TestJoinRebansBannedUser(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA, groupB)
	_, err := f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)
	_, err = f.mod.Ban(t.Context(), spammer.UserID)
	require.NoError(t, err)
	f.gw.Reset()

	result, err := f.mod.HandleMemberJoin(t.Context(), groupB, spammer)
	require.NoError(t, err)
	assert.Equal(t, service.JoinRebanned, result)
	assert.Len(t, f.gw.Calls("Ban"), 1)
	assert.Len(t, f.gw.MessagesTo(groupB), 1)
	assert.Len(t, f.gw.MessagesTo(spammer.UserID), 1)
}

func TestJoinCarriesActiveMute(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA)
	_, err := f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)
	_, err = f.mod.Mute(t.Context(), spammer.UserID)
	require.NoError(t, err)

	gw := f.gw
	gw.SetAdmins(groupB, admin)
	_, _, err = f.mod.ActivateGroup(t.Context(), groupB, "Grup B", admin)
	require.NoError(t, err)
	gw.Reset()

	result, err := f.mod.HandleMemberJoin(t.Context(), groupB, spammer)
	require.NoError(t, err)
	assert.Equal(t, service.JoinMuted, result)

	restricts := gw.Calls("Restrict")
	require.Len(t, restricts, 1)
	assert.Equal(t, t0.Add(6*time.Hour), restricts[0].Until)

	mutes, err := f.mod.Mutes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []int64{groupA, groupB}, mutes[spammer.UserID].GroupIDs())
}

func TestVerifyUserLiftsJoinRestriction(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA, groupB)

	fresh, err := f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Len(t, f.gw.Calls("Unrestrict"), 2)

	verified, err := f.mod.VerifiedUsers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, t0, verified[spammer.UserID].VerifiedAt.UTC())

	fresh, err = f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestVerifyUserKeepsMuteRestriction(t *testing.T) {
	t.Parallel()
	f := setup(t, groupA, groupB)
	f.gw.SetMember(groupB, spammer.UserID, false)
	_, err := f.mod.Mute(t.Context(), spammer.UserID)
	require.NoError(t, err)
	f.gw.SetMember(groupB, spammer.UserID, true)
	f.gw.Reset()

	_, err = f.mod.VerifyUser(t.Context(), spammer)
	require.NoError(t, err)

	unrestricts := f.gw.Calls("Unrestrict")
	require.Len(t, unrestricts, 1)
	assert.Equal(t, groupB, unrestricts[0].ChatID)
}
