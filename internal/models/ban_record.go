package models

import "time"

// BanEntry records that a user is banned from the tracked groups. It is
// removed only by an explicit unban.
type BanEntry struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	BannedAt time.Time `json:"banned_at"`
}

// Bans is keyed by user id.
type Bans map[int64]BanEntry

func (b *Bans) Normalize() {
	if *b == nil {
		*b = Bans{}
	}
	for id, e := range *b {
		e.Username = NormalizeUsername(e.Username)
		(*b)[id] = e
	}
}

// Has reports whether the user is banned.
func (b Bans) Has(userID int64) bool {
	_, ok := b[userID]
	return ok
}
