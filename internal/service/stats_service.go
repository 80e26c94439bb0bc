package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tg-antijudi/internal/models"
)

// statsZone is the local time of the groups; days and hours are bucketed in it.
var statsZone = time.FixedZone("WIB", 7*60*60)

const dayLayout = "2006-01-02"

// Totals counts the entries of every collection.
type Totals struct {
	Violations     int `json:"violations"`
	CleanMessages  int `json:"clean_messages"`
	ViolatingUsers int `json:"violating_users"`
	Mutes          int `json:"mutes"`
	Bans           int `json:"bans"`
	VerifiedUsers  int `json:"verified_users"`
	ActiveGroups   int `json:"active_groups"`
}

// GroupStats counts the logged messages of one group.
type GroupStats struct {
	GroupID       int64  `json:"group_id"`
	GroupName     string `json:"group_name"`
	Violations    int    `json:"violations"`
	CleanMessages int    `json:"clean_messages"`
}

// DayStats is one point of the daily violation series.
type DayStats struct {
	Date       string `json:"date"`
	Violations int    `json:"violations"`
}

// Stats aggregates the two logs and the sanction collections. Heatmap is
// indexed by weekday (Sunday first) and hour, both in WIB.
type Stats struct {
	Totals  Totals       `json:"totals"`
	Groups  []GroupStats `json:"groups"`
	Daily   []DayStats   `json:"daily"`
	Hourly  [24]int      `json:"hourly"`
	Heatmap [7][24]int   `json:"heatmap"`
}

// Stats computes the console statistics from a consistent read of each
// collection.
func (m *Moderator) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	groups, err := m.ActiveGroups(ctx)
	if err != nil {
		return st, err
	}
	violations, err := m.ledger.Logs(ctx, models.LogViolating)
	if err != nil {
		return st, err
	}
	clean, err := m.ledger.Logs(ctx, models.LogClean)
	if err != nil {
		return st, err
	}
	mutes, err := m.Mutes(ctx)
	if err != nil {
		return st, err
	}
	bans, err := m.Bans(ctx)
	if err != nil {
		return st, err
	}
	verified, err := m.VerifiedUsers(ctx)
	if err != nil {
		return st, err
	}

	st.Totals = Totals{
		ViolatingUsers: len(violations),
		Mutes:          len(mutes),
		Bans:           len(bans),
		VerifiedUsers:  len(verified),
		ActiveGroups:   len(groups),
	}

	perGroup := make(map[int64]*GroupStats)
	group := func(r models.MessageRecord) *GroupStats {
		g, ok := perGroup[r.GroupID]
		if !ok {
			g = &GroupStats{GroupID: r.GroupID, GroupName: r.GroupName}
			if info, ok := groups[r.GroupID]; ok {
				g.GroupName = info.GroupName
			}
			perGroup[r.GroupID] = g
		}
		return g
	}

	daily := make(map[string]int)
	for _, records := range violations {
		for _, r := range records {
			st.Totals.Violations++
			group(r).Violations++
			local := r.Timestamp.In(statsZone)
			daily[local.Format(dayLayout)]++
			st.Hourly[local.Hour()]++
			st.Heatmap[local.Weekday()][local.Hour()]++
		}
	}
	for _, records := range clean {
		for _, r := range records {
			st.Totals.CleanMessages++
			group(r).CleanMessages++
		}
	}

	st.Groups = make([]GroupStats, 0, len(perGroup))
	for _, g := range perGroup {
		st.Groups = append(st.Groups, *g)
	}
	sort.Slice(st.Groups, func(i, j int) bool {
		if st.Groups[i].Violations != st.Groups[j].Violations {
			return st.Groups[i].Violations > st.Groups[j].Violations
		}
		return st.Groups[i].GroupID < st.Groups[j].GroupID
	})

	st.Daily = make([]DayStats, 0, len(daily))
	for day, n := range daily {
		st.Daily = append(st.Daily, DayStats{Date: day, Violations: n})
	}
	sort.Slice(st.Daily, func(i, j int) bool { return st.Daily[i].Date < st.Daily[j].Date })
	return st, nil
}

// LogFilter narrows a log to one group and/or one WIB calendar day. Zero
// fields match everything.
type LogFilter struct {
	GroupID int64
	Date    string
}

// ParseLogFilter reads the group and date query values of the console.
func ParseLogFilter(group, date string) (LogFilter, error) {
	var f LogFilter
	if group = strings.TrimSpace(group); group != "" {
		id, err := strconv.ParseInt(group, 10, 64)
		if err != nil || id == 0 {
			return f, fmt.Errorf("%w: invalid group id %q", models.ErrInvalidArgument, group)
		}
		f.GroupID = id
	}
	if date = strings.TrimSpace(date); date != "" {
		if _, err := time.ParseInLocation(dayLayout, date, statsZone); err != nil {
			return f, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", models.ErrInvalidArgument, date)
		}
		f.Date = date
	}
	return f, nil
}

// Apply returns the records of logs that match; users left without records
// are dropped.
func (f LogFilter) Apply(logs models.MessageLogs) models.MessageLogs {
	if f.GroupID == 0 && f.Date == "" {
		return logs
	}
	out := make(models.MessageLogs, len(logs))
	for userID, records := range logs {
		var kept []models.MessageRecord
		for _, r := range records {
			if f.GroupID != 0 && r.GroupID != f.GroupID {
				continue
			}
			if f.Date != "" && r.Timestamp.In(statsZone).Format(dayLayout) != f.Date {
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) > 0 {
			out[userID] = kept
		}
	}
	return out
}
