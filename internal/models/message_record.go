package models

import (
	"sort"
	"time"
)

// LogKind names one of the two disjoint message logs.
type LogKind string

const (
	LogViolating LogKind = "violating"
	LogClean     LogKind = "clean"
)

// Opposite returns the other log.
func (k LogKind) Opposite() LogKind {
	if k == LogViolating {
		return LogClean
	}
	return LogViolating
}

// Valid reports whether k names a known log.
func (k LogKind) Valid() bool {
	return k == LogViolating || k == LogClean
}

// Message is an inbound group message before it is classified.
type Message struct {
	Sender    Identity
	GroupID   int64
	GroupName string
	MessageID int
	Text      string
	SentAt    time.Time
}

// MessageRecord is one entry of a Violating or Clean log. The sender fields
// are a snapshot taken at record time. MessageID 0 means the platform
// identifier is unknown (records imported from older files).
type MessageRecord struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	GroupID   int64     `json:"group_id" validate:"required"`
	GroupName string    `json:"group_name"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	MessageID int       `json:"message_id" validate:"gte=0"`
}

// NewMessageRecord snapshots an inbound message.
func NewMessageRecord(msg Message) MessageRecord {
	return MessageRecord{
		Username:  msg.Sender.Username,
		Name:      msg.Sender.Name,
		GroupID:   msg.GroupID,
		GroupName: msg.GroupName,
		Timestamp: msg.SentAt,
		Message:   msg.Text,
		MessageID: msg.MessageID,
	}
}

// SameMessage reports whether two records refer to the same platform
// message. Records without an identifier never match.
func (r MessageRecord) SameMessage(groupID int64, messageID int) bool {
	return messageID != 0 && r.MessageID == messageID && r.GroupID == groupID
}

// MessageLogs is one of the two logs, keyed by user id.
type MessageLogs map[int64][]MessageRecord

func (m *MessageLogs) Normalize() {
	if *m == nil {
		*m = MessageLogs{}
	}
	for id, records := range *m {
		if len(records) == 0 {
			delete(*m, id)
			continue
		}
		for i := range records {
			records[i].Username = NormalizeUsername(records[i].Username)
		}
	}
}

// Count is the number of entries for a user across all groups.
func (m MessageLogs) Count(userID int64) int {
	return len(m[userID])
}

// Find returns the index of a message in the user's log, or -1.
func (m MessageLogs) Find(userID, groupID int64, messageID int) int {
	for i, r := range m[userID] {
		if r.SameMessage(groupID, messageID) {
			return i
		}
	}
	return -1
}

// InGroup returns the user's entries for one group.
func (m MessageLogs) InGroup(userID, groupID int64) []MessageRecord {
	var out []MessageRecord
	for _, r := range m[userID] {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out
}

// Append adds a record, keeping each user's log in timestamp order.
func (m MessageLogs) Append(userID int64, records ...MessageRecord) {
	log := append(m[userID], records...)
	sort.SliceStable(log, func(i, j int) bool { return log[i].Timestamp.Before(log[j].Timestamp) })
	m[userID] = log
}

// Remove deletes the user's records for which match returns true and
// returns them.
func (m MessageLogs) Remove(userID int64, match func(MessageRecord) bool) []MessageRecord {
	var removed, kept []MessageRecord
	for _, r := range m[userID] {
		if match(r) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(m, userID)
	} else {
		m[userID] = kept
	}
	return removed
}

// Users returns the user ids with at least one entry, ascending.
func (m MessageLogs) Users() []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Identity rebuilds the most recent sender snapshot for a user.
func (m MessageLogs) Identity(userID int64) (Identity, bool) {
	records := m[userID]
	if len(records) == 0 {
		return Identity{}, false
	}
	last := records[len(records)-1]
	return Identity{UserID: userID, Username: last.Username, Name: last.Name}, true
}
