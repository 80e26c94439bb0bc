package models

import (
	"fmt"
	"sort"
	"time"
)

// GroupInfo is an active group: one where an administrator enabled
// moderation. Admins is the snapshot taken at activation time.
type GroupInfo struct {
	GroupID     int64      `json:"group_id" validate:"required"`
	GroupName   string     `json:"group_name"`
	ActivatedBy string     `json:"activated_by"`
	ActivatedAt time.Time  `json:"activated_at"`
	Admins      []Identity `json:"admins"`
}

func (g GroupInfo) String() string {
	if g.GroupName == "" {
		return fmt.Sprintf("%d", g.GroupID)
	}
	return fmt.Sprintf("%s (%d)", g.GroupName, g.GroupID)
}

// ActiveGroups is the group registry, keyed by group id.
type ActiveGroups map[int64]GroupInfo

// Normalize applies the decode defaults: the map key is authoritative for
// the group id and a missing admin list is empty.
func (a *ActiveGroups) Normalize() {
	if *a == nil {
		*a = ActiveGroups{}
	}
	for id, g := range *a {
		g.GroupID = id
		if g.Admins == nil {
			g.Admins = []Identity{}
		}
		(*a)[id] = g
	}
}

// IDs returns the group ids in ascending order.
func (a ActiveGroups) IDs() []int64 {
	ids := make([]int64, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Name returns the stored display name of a group, or "" if unknown.
func (a ActiveGroups) Name(groupID int64) string {
	return a[groupID].GroupName
}
