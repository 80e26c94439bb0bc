// Package legacy reads the JSON files written by the first version of the
// bot and converts them into the store's collections.
package legacy

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"tg-antijudi/internal/models"
)

// File names used by the old bot.
const (
	ActiveGroupsFile  = "active_groups.json"
	ViolationsFile    = "violations.json"
	NonViolationsFile = "non_violations.json"
	MuteTrackerFile   = "mute_tracker.json"
	BannedUsersFile   = "banned_users.json"
	UsersFile         = "users.json"
)

// WIB is the zone the old bot wrote its local times in.
var WIB = time.FixedZone("WIB", 7*60*60)

// ID accepts both numeric and quoted ids; the old files mixed them.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	*id = ID(v)
	return nil
}

type adminEntry struct {
	UserID   ID     `json:"user_id"`
	Username string `json:"username"`
}

type groupEntry struct {
	GroupName   string       `json:"group_name"`
	ActivatedBy string       `json:"activated_by"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Admins      []adminEntry `json:"admins"`
}

type logEntry struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	GroupID   ID     `json:"group_id"`
	GroupName string `json:"group_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	MessageID *int   `json:"message_id"`
}

type muteEntry struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Until    string `json:"until"`
	Groups   map[string]struct {
		GroupName string `json:"group_name"`
	} `json:"groups"`
}

type userEntry struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Snapshot is the converted content of a legacy data directory.
type Snapshot struct {
	ActiveGroups  models.ActiveGroups
	Violations    models.MessageLogs
	CleanMessages models.MessageLogs
	Mutes         models.Mutes
	Bans          models.Bans
	VerifiedUsers models.VerifiedUsers

	// Skipped lists entries that could not be converted.
	Skipped []string
}

// Read loads every legacy file found in dir. Missing files are treated as
// empty.
func Read(dir string) (*Snapshot, error) {
	s := &Snapshot{
		ActiveGroups:  models.ActiveGroups{},
		Violations:    models.MessageLogs{},
		CleanMessages: models.MessageLogs{},
		Mutes:         models.Mutes{},
		Bans:          models.Bans{},
		VerifiedUsers: models.VerifiedUsers{},
	}

	var groups map[string]groupEntry
	if err := readFile(dir, ActiveGroupsFile, &groups); err != nil {
		return nil, err
	}
	for key, g := range groups {
		if err := s.addGroup(key, g); err != nil {
			s.skip(ActiveGroupsFile, key, err)
		}
	}

	for file, logs := range map[string]models.MessageLogs{
		ViolationsFile:    s.Violations,
		NonViolationsFile: s.CleanMessages,
	} {
		var raw map[string][]logEntry
		if err := readFile(dir, file, &raw); err != nil {
			return nil, err
		}
		for key, entries := range raw {
			if err := s.addLog(logs, key, entries); err != nil {
				s.skip(file, key, err)
			}
		}
	}

	var mutes map[string]muteEntry
	if err := readFile(dir, MuteTrackerFile, &mutes); err != nil {
		return nil, err
	}
	for key, m := range mutes {
		if err := s.addMute(key, m); err != nil {
			s.skip(MuteTrackerFile, key, err)
		}
	}

	var banned map[string]userEntry
	if err := readFile(dir, BannedUsersFile, &banned); err != nil {
		return nil, err
	}
	for key, u := range banned {
		id, err := parseUserID(key)
		if err != nil {
			s.skip(BannedUsersFile, key, err)
			continue
		}
		ident := identity(id, u.Username, u.Name)
		at, err := ParseDateTime(u.Date, u.Time)
		if err != nil {
			s.skip(BannedUsersFile, key, err)
			continue
		}
		s.Bans[id] = models.BanEntry{Username: ident.Username, Name: ident.Name, BannedAt: at}
	}

	var users map[string]userEntry
	if err := readFile(dir, UsersFile, &users); err != nil {
		return nil, err
	}
	for key, u := range users {
		id, err := parseUserID(key)
		if err != nil {
			s.skip(UsersFile, key, err)
			continue
		}
		ident := identity(id, u.Username, u.Name)
		at, err := ParseDateTime(u.Date, u.Time)
		if err != nil {
			s.skip(UsersFile, key, err)
			continue
		}
		s.VerifiedUsers[id] = models.VerifiedUser{Username: ident.Username, Name: ident.Name, VerifiedAt: at}
	}

	return s, nil
}

func readFile(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Snapshot) skip(file, key string, err error) {
	s.Skipped = append(s.Skipped, fmt.Sprintf("%s[%s]: %v", file, key, err))
}

func (s *Snapshot) addGroup(key string, g groupEntry) error {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid group id")
	}
	at, err := ParseDateTime(g.Date, g.Time)
	if err != nil {
		return err
	}
	admins := make([]models.Identity, 0, len(g.Admins))
	for _, a := range g.Admins {
		if a.UserID == 0 {
			continue
		}
		admins = append(admins, identity(int64(a.UserID), a.Username, ""))
	}
	s.ActiveGroups[id] = models.GroupInfo{
		GroupID:     id,
		GroupName:   g.GroupName,
		ActivatedBy: g.ActivatedBy,
		ActivatedAt: at,
		Admins:      admins,
	}
	return nil
}

func (s *Snapshot) addLog(logs models.MessageLogs, key string, entries []logEntry) error {
	id, err := parseUserID(key)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.GroupID == 0 {
			s.skip("log", fmt.Sprintf("%s/%d", key, i), fmt.Errorf("missing group id"))
			continue
		}
		ts, err := ParseTimestamp(e.Timestamp)
		if err != nil {
			s.skip("log", fmt.Sprintf("%s/%d", key, i), err)
			continue
		}
		ident := identity(id, e.Username, e.Name)
		rec := models.MessageRecord{
			Username:  ident.Username,
			Name:      ident.Name,
			GroupID:   int64(e.GroupID),
			GroupName: e.GroupName,
			Timestamp: ts,
			Message:   e.Message,
		}
		if e.MessageID != nil && *e.MessageID > 0 {
			rec.MessageID = *e.MessageID
		}
		logs.Append(id, rec)
	}
	return nil
}

func (s *Snapshot) addMute(key string, m muteEntry) error {
	id, err := parseUserID(key)
	if err != nil {
		return err
	}
	until, err := ParseUntil(m.Until)
	if err != nil {
		return err
	}
	groups := make(map[int64]string, len(m.Groups))
	for gid, g := range m.Groups {
		v, err := strconv.ParseInt(gid, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid group id %q", gid)
		}
		groups[v] = g.GroupName
	}
	ident := identity(id, m.Username, m.Name)
	s.Mutes[id] = models.MuteEntry{Username: ident.Username, Name: ident.Name, Until: until, Groups: groups}
	return nil
}

func parseUserID(key string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", key)
	}
	return id, nil
}

// identity splits the old "username" field, which held "@handle" when the
// user had one and the display name otherwise.
func identity(id int64, username, name string) models.Identity {
	username = strings.TrimSpace(username)
	if strings.HasPrefix(username, "@") {
		return models.Identity{UserID: id, Username: models.NormalizeUsername(username), Name: name}
	}
	if name == "" {
		name = username
	}
	return models.Identity{UserID: id, Name: name}
}

// ParseDateTime combines the separate date and time fields. The time may
// carry a trailing " WIB".
func ParseDateTime(date, clock string) (time.Time, error) {
	clock = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(clock), "WIB"))
	if clock == "" {
		clock = "00:00:00"
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(date)+" "+clock, WIB)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q %q: %w", date, clock, err)
	}
	return t, nil
}

// ParseTimestamp parses a log timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(s), WIB)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseUntil parses a mute release time. Values without an offset are
// local WIB times.
func ParseUntil(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, WIB)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid mute end %q: %w", s, err)
	}
	return t, nil
}
