package handler

import (
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/models"
)

// wib is Western Indonesia Time, used for activation stamps.
var wib = time.FixedZone("WIB", 7*60*60)

// parseCommand splits "/cmd@bot arg1 arg2". Commands addressed to another
// bot are not ours.
func parseCommand(text, botUsername string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		if !strings.EqualFold(cmd[at+1:], botUsername) {
			return "", nil, false
		}
		cmd = cmd[:at]
	}
	if cmd == "" {
		return "", nil, false
	}
	return strings.ToLower(cmd), fields[1:], true
}

func isGroupChat(chat telego.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

// messageOf converts a Telegram message; captions count as text.
func messageOf(m telego.Message) models.Message {
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	msg := models.Message{
		GroupID:   m.Chat.ID,
		GroupName: m.Chat.Title,
		MessageID: m.MessageID,
		Text:      text,
		SentAt:    time.Unix(m.Date, 0),
	}
	if m.From != nil {
		msg.Sender = gateway.IdentityOf(*m.From)
	}
	return msg
}

// activationStamp renders the activation time as date and clock in WIB.
func activationStamp(t time.Time) (string, string) {
	local := t.In(wib)
	return local.Format("2006-01-02"), local.Format("15:04:05") + " WIB"
}
