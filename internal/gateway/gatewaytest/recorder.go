// Package gatewaytest provides an in-memory Gateway that records calls.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tg-antijudi/internal/gateway"
	"tg-antijudi/internal/models"
)

// Call is one recorded gateway invocation.
type Call struct {
	Method    string
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	Until     time.Time
	Buttons   []gateway.Button
}

// Recorder is a fake Gateway. Every user is a member of every group unless
// SetMember says otherwise; failures are injected per method and chat.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	members  map[[2]int64]bool
	failures map[string]bool
	admins   map[int64][]models.Identity
	// Hook runs after a call is recorded, outside the lock.
	Hook func(Call)
}

var _ gateway.Gateway = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		members:  make(map[[2]int64]bool),
		failures: make(map[string]bool),
		admins:   make(map[int64][]models.Identity),
	}
}

// SetMember overrides membership of a user in a group.
func (r *Recorder) SetMember(groupID, userID int64, member bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[[2]int64{groupID, userID}] = member
}

// Fail makes every call of method on chatID fail. chatID 0 matches any chat.
func (r *Recorder) Fail(method string, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[failureKey(method, chatID)] = true
}

// Recover undoes Fail.
func (r *Recorder) Recover(method string, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, failureKey(method, chatID))
}

func (r *Recorder) SetAdmins(groupID int64, admins ...models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[groupID] = admins
}

func failureKey(method string, chatID int64) string {
	return fmt.Sprintf("%s/%d", method, chatID)
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	failed := r.failures[failureKey(c.Method, c.ChatID)] || r.failures[failureKey(c.Method, 0)]
	if !failed {
		r.calls = append(r.calls, c)
	}
	hook := r.Hook
	r.mu.Unlock()

	if failed {
		return fmt.Errorf("%w: %s in %d: injected failure", models.ErrGatewayUnavailable, c.Method, c.ChatID)
	}
	if hook != nil {
		hook(c)
	}
	return nil
}

// Calls returns the successful calls, optionally filtered by method.
func (r *Recorder) Calls(methods ...string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(methods) == 0 {
		return append([]Call(nil), r.calls...)
	}
	var out []Call
	for _, c := range r.calls {
		for _, m := range methods {
			if c.Method == m {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// MessagesTo returns the texts sent to one chat.
func (r *Recorder) MessagesTo(chatID int64) []string {
	var out []string
	for _, c := range r.Calls("SendMessage") {
		if c.ChatID == chatID {
			out = append(out, c.Text)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps membership and failures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) SendMessage(_ context.Context, chatID int64, text string, buttons ...gateway.Button) error {
	return r.record(Call{Method: "SendMessage", ChatID: chatID, Text: text, Buttons: buttons})
}

func (r *Recorder) DeleteMessage(_ context.Context, groupID int64, messageID int) error {
	return r.record(Call{Method: "DeleteMessage", ChatID: groupID, MessageID: messageID})
}

func (r *Recorder) Restrict(_ context.Context, groupID, userID int64, until time.Time) error {
	return r.record(Call{Method: "Restrict", ChatID: groupID, UserID: userID, Until: until})
}

func (r *Recorder) Unrestrict(_ context.Context, groupID, userID int64) error {
	return r.record(Call{Method: "Unrestrict", ChatID: groupID, UserID: userID})
}

func (r *Recorder) Ban(_ context.Context, groupID, userID int64) error {
	if err := r.record(Call{Method: "Ban", ChatID: groupID, UserID: userID}); err != nil {
		return err
	}
	r.SetMember(groupID, userID, false)
	return nil
}

func (r *Recorder) Unban(_ context.Context, groupID, userID int64) error {
	return r.record(Call{Method: "Unban", ChatID: groupID, UserID: userID})
}

func (r *Recorder) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	if err := r.record(Call{Method: "IsMember", ChatID: groupID, UserID: userID}); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[[2]int64{groupID, userID}]
	if !ok {
		return true, nil
	}
	return member, nil
}

func (r *Recorder) ListAdmins(_ context.Context, groupID int64) ([]models.Identity, error) {
	if err := r.record(Call{Method: "ListAdmins", ChatID: groupID}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Identity(nil), r.admins[groupID]...), nil
}

func (r *Recorder) StartLink(param string) string {
	return "https://t.me/antijudi_test_bot?start=" + param
}
