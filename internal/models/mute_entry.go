package models

import (
	"sort"
	"time"
)

// MuteEntry is an active mute. Groups holds only the groups where the
// restriction call succeeded, mapped to the group name at that time.
type MuteEntry struct {
	Username string           `json:"username"`
	Name     string           `json:"name"`
	Until    time.Time        `json:"until"`
	Groups   map[int64]string `json:"groups"`
}

// Due reports whether the mute has expired at now.
func (e MuteEntry) Due(now time.Time) bool {
	return !e.Until.After(now)
}

// GroupIDs returns the recorded groups in ascending order.
func (e MuteEntry) GroupIDs() []int64 {
	ids := make([]int64, 0, len(e.Groups))
	for id := range e.Groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Mutes is keyed by user id.
type Mutes map[int64]MuteEntry

// Normalize applies decode defaults. A zero Until is treated as already
// due so a damaged entry is cleaned up by the next scheduler tick.
func (m *Mutes) Normalize() {
	if *m == nil {
		*m = Mutes{}
	}
	for id, e := range *m {
		if e.Groups == nil {
			e.Groups = map[int64]string{}
		}
		e.Username = NormalizeUsername(e.Username)
		(*m)[id] = e
	}
}

// DueAt returns the ids of users whose mute expired at now, ascending.
func (m Mutes) DueAt(now time.Time) []int64 {
	var ids []int64
	for id, e := range m {
		if e.Due(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
