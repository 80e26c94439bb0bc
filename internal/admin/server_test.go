package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-antijudi/internal/admin"
	"tg-antijudi/internal/config"
	"tg-antijudi/internal/gateway/gatewaytest"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/service"
	"tg-antijudi/internal/storage"
)

const (
	token   = "s3cret"
	groupID = int64(-100900)
)

var (
	owner   = models.Identity{UserID: 1, Username: "owner"}
	spammer = models.Identity{UserID: 55, Username: "promo", Name: "Promo"}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type alwaysViolating struct{}

func (alwaysViolating) Classify(context.Context, string) (bool, error) { return true, nil }

type fixture struct {
	handler http.Handler
	mod     *service.Moderator
	gw      *gatewaytest.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewCoordinator(storage.NewMemoryBackend(), config.RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
	gw := gatewaytest.New()
	gw.SetAdmins(groupID, owner)
	mod, err := service.New(config.Default(), store, gw, alwaysViolating{})
	require.NoError(t, err)
	_, _, err = mod.ActivateGroup(t.Context(), groupID, "Grup Uji", owner)
	require.NoError(t, err)

	srv := admin.NewServer(mod, config.AdminConfig{Listen: "127.0.0.1:0", Token: token})
	return &fixture{handler: srv.Handler(), mod: mod, gw: gw}
}

func (f *fixture) violate(t *testing.T, messageID int) {
	t.Helper()
	_, err := f.mod.HandleMessage(t.Context(), models.Message{
		Sender:    spammer,
		GroupID:   groupID,
		MessageID: messageID,
		Text:      "bonus deposit slot gacor",
		SentAt:    time.Date(2025, 1, 1, 0, 0, messageID, 0, time.UTC),
	})
	require.NoError(t, err)
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), v))
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	f := setup(t)

	for _, header := range []string{"", "Bearer wrong", "Basic " + token, token} {
		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListGroups(t *testing.T) {
	t.Parallel()
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Groups []models.GroupInfo `json:"groups"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "Grup Uji", body.Groups[0].GroupName)
}

func TestUserLifecycle(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.violate(t, 1)
	f.violate(t, 2)

	rec := f.do(t, http.MethodGet, "/api/users/55", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum service.UserSummary
	decode(t, rec, &sum)
	assert.Equal(t, 2, sum.ViolationCount)
	assert.Equal(t, "promo", sum.Identity.Username)

	rec = f.do(t, http.MethodPost, "/api/users/55/reclassify", `{"group_id": -100900, "message_ids": [2], "target": "clean"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"moved": 1}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/violations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = f.do(t, http.MethodPost, "/api/users/55/mute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"succeeded":[-100900]`)
	assert.Contains(t, rec.Body.String(), `"applied":true`)

	rec = f.do(t, http.MethodGet, "/api/mutes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"55"`)

	rec = f.do(t, http.MethodDelete, "/api/users/55/mute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/users/55/mute", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/users/55/ban", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/bans", "")
	assert.Contains(t, rec.Body.String(), `"promo"`)
	rec = f.do(t, http.MethodDelete, "/api/users/55/ban", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSanctionAppliedNowhere(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.violate(t, 1)
	f.gw.SetMember(groupID, spammer.UserID, false)
	f.gw.Reset()

	for _, path := range []string{"/api/users/55/mute", "/api/users/55/ban"} {
		rec := f.do(t, http.MethodPost, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var out struct {
			Applied   bool    `json:"applied"`
			Succeeded []int64 `json:"succeeded"`
			Skipped   []int64 `json:"skipped"`
		}
		decode(t, rec, &out)
		assert.False(t, out.Applied, path)
		assert.Empty(t, out.Succeeded, path)
		assert.Equal(t, []int64{groupID}, out.Skipped, path)
	}

	bans, err := f.mod.Bans(t.Context())
	require.NoError(t, err)
	assert.Empty(t, bans)
	assert.Empty(t, f.gw.MessagesTo(spammer.UserID))
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.violate(t, 1)
	f.violate(t, 2)
	_, err := f.mod.Reclassify(t.Context(), spammer.UserID, groupID, []int{2}, models.LogClean)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st service.Stats
	decode(t, rec, &st)

	assert.Equal(t, service.Totals{
		Violations:     1,
		CleanMessages:  1,
		ViolatingUsers: 1,
		ActiveGroups:   1,
	}, st.Totals)
	assert.Equal(t, []service.GroupStats{
		{GroupID: groupID, GroupName: "Grup Uji", Violations: 1, CleanMessages: 1},
	}, st.Groups)
	assert.Equal(t, []service.DayStats{{Date: "2025-01-01", Violations: 1}}, st.Daily)
	// 00:00 UTC on Wednesday is 07:00 WIB
	assert.Equal(t, 1, st.Hourly[7])
	assert.Equal(t, 1, st.Heatmap[time.Wednesday][7])
}

func TestLogFilters(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.violate(t, 1)
	f.violate(t, 2)

	count := func(path string) int {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var body struct {
			Users []struct {
				Count int `json:"count"`
			} `json:"users"`
		}
		decode(t, rec, &body)
		n := 0
		for _, u := range body.Users {
			n += u.Count
		}
		return n
	}
	assert.Equal(t, 2, count("/api/violations?group=-100900&date=2025-01-01"))
	assert.Equal(t, 0, count("/api/violations?date=2025-01-02"))
	assert.Equal(t, 0, count("/api/violations?group=-1"))
	assert.Equal(t, 0, count("/api/clean?group=-100900"))

	for _, path := range []string{"/api/violations?date=01/01/2025", "/api/clean?group=abc"} {
		rec := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()
	f := setup(t)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/api/users/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/users/404", "", http.StatusNotFound},
		{http.MethodPost, "/api/users/55/reclassify", `{"group_id": -100900, "target": "spam"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/users/55/reclassify", `{"group_id": -100900, "target": "clean"}`, http.StatusNotFound},
		{http.MethodPost, "/api/users/55/message", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/users/55/ban", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := f.do(t, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.status, rec.Code, "%s %s: %s", tt.method, tt.path, rec.Body.String())
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/users/55/message", `{"text": "Harap berhenti"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Harap berhenti"}, f.gw.MessagesTo(55))

	f.gw.Fail("SendMessage", 55)
	rec = f.do(t, http.MethodPost, "/api/users/55/message", `{"text": "lagi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.violate(t, 1)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "antijudi_messages_processed_total")
}
