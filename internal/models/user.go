package models

import (
	"strings"
	"time"
)

// Identity is a user as captured at the time something was recorded. It is
// never re-resolved against the platform.
type Identity struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// DisplayName renders the identity the way group notices address users:
// @handle when there is one, otherwise the full name.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return "@" + i.Username
	}
	if i.Name != "" {
		return i.Name
	}
	return "Pengguna"
}

// NormalizeUsername strips the leading @ that older records stored.
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// VerifiedUser is a user who started the bot in a private chat. Only
// verified users can receive direct notices.
type VerifiedUser struct {
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	VerifiedAt time.Time `json:"verified_at"`
}

// VerifiedUsers is keyed by user id.
type VerifiedUsers map[int64]VerifiedUser

func (v *VerifiedUsers) Normalize() {
	if *v == nil {
		*v = VerifiedUsers{}
	}
	for id, u := range *v {
		u.Username = NormalizeUsername(u.Username)
		(*v)[id] = u
	}
}

// Has reports whether the user is verified.
func (v VerifiedUsers) Has(userID int64) bool {
	_, ok := v[userID]
	return ok
}
