// Package ids generates record identifiers for every collection.
//
// Identifiers have the form <prefix>-<uuidv7>. A version 7 UUID starts with a
// 48-bit millisecond timestamp followed by random bits, so ids sort roughly by
// creation time.
package ids

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common prefixes.
const (
	Player       = "player"
	PlayerUser   = "player-user"
	Staff        = "staff"
	StaffUser    = "staff-user"
	Team         = "team"
	Event        = "event"
	Participant  = "part"
	ChatRoom     = "room"
	ChatMember   = "member"
	ChatMessage  = "msg"
	Notification = "notif"
	PlayerNote   = "note"
	CoachNote    = "coach-note"
	Folder       = "folder"
	Report       = "report"
	Access       = "access"
	DailyNote    = "daily-note"
	Analytics    = "analytics"
	Media        = "media"
)

// New returns a fresh id with the given prefix.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

// Time extracts the creation time embedded in an id produced by New.
// ok is false for ids that do not carry a version 7 UUID.
func Time(id string) (t time.Time, ok bool) {
	if len(id) < 36 {
		return time.Time{}, false
	}
	u, err := uuid.Parse(id[len(id)-36:])
	if err != nil || u.Version() != 7 {
		return time.Time{}, false
	}
	var ms int64
	for _, b := range u[:6] {
		ms = ms<<8 | int64(b)
	}
	return time.UnixMilli(ms).UTC(), true
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
