package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name, first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"  Jane   Mary  Doe ", "Jane", "Mary Doe"},
		{"Pelé", "Pelé", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.name)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = %q, %q; want %q, %q", tt.name, first, last, tt.first, tt.last)
		}
	}
}

func TestEventColor(t *testing.T) {
	if got := EventMatch.Color(); got != "#EF4444" {
		t.Errorf("MATCH color = %s", got)
	}
	if got := EventType("PICNIC").Color(); got != "#6B7280" {
		t.Errorf("unknown type color = %s", got)
	}
}

func TestEventDuration(t *testing.T) {
	tests := []struct {
		ev   Event
		want time.Duration
	}{
		{Event{StartTime: "09:00", EndTime: "10:30"}, 90 * time.Minute},
		{Event{StartTime: "09:00", EndTime: "08:00"}, 0},
		{Event{StartTime: "bad", EndTime: "10:00"}, 0},
		{Event{StartTime: "09:00", EndTime: "10:00", IsAllDay: true}, 0},
	}
	for _, tt := range tests {
		if got := tt.ev.Duration(); got != tt.want {
			t.Errorf("%s-%s allDay=%v: got %v, want %v", tt.ev.StartTime, tt.ev.EndTime, tt.ev.IsAllDay, got, tt.want)
		}
	}
}

func TestRefreshLastMessageSkipsDeleted(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	room := ChatRoom{Messages: []ChatMessage{
		{ID: "m1", Content: "first"},
		{ID: "m2", Content: "second", DeletedAt: &now},
	}}
	room.RefreshLastMessage()
	if room.LastMessage == nil || room.LastMessage.ID != "m1" {
		t.Fatalf("LastMessage = %+v, want m1", room.LastMessage)
	}
	if got := len(room.VisibleMessages()); got != 1 {
		t.Errorf("visible = %d, want 1", got)
	}
	if len(room.Messages) != 2 {
		t.Errorf("soft-deleted message must stay in Messages")
	}

	room.Messages[0].DeletedAt = &now
	room.RefreshLastMessage()
	if room.LastMessage != nil {
		t.Errorf("LastMessage = %+v, want nil", room.LastMessage)
	}
}

func TestFolderVisibility(t *testing.T) {
	f := ReportFolder{
		VisibleToStaff:   []FolderAccess{{StaffID: "s1", CanView: true}, {StaffID: "s2", CanView: false}},
		VisibleToPlayers: []FolderAccess{{PlayerID: "p1", CanView: true}},
	}
	tests := []struct {
		viewer Principal
		want   bool
	}{
		{Principal{Role: RoleAdmin}, true},
		{Principal{Role: RoleStaff, StaffID: "s1"}, true},
		{Principal{Role: RoleStaff, StaffID: "s2"}, false},
		{Principal{Role: RolePlayer, PlayerID: "p1"}, true},
		{Principal{Role: RolePlayer, PlayerID: "p2"}, false},
	}
	for _, tt := range tests {
		if got := f.VisibleTo(tt.viewer); got != tt.want {
			t.Errorf("VisibleTo(%+v) = %v, want %v", tt.viewer, got, tt.want)
		}
	}
}

func TestReportActiveDefaultsTrue(t *testing.T) {
	var r Report
	if err := json.Unmarshal([]byte(`{"id":"r1","name":"x"}`), &r); err != nil {
		t.Fatal(err)
	}
	if !r.Active() {
		t.Error("report without isActive should be active")
	}
	if err := json.Unmarshal([]byte(`{"id":"r1","isActive":false}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Active() {
		t.Error("report with isActive=false should be inactive")
	}
}

func TestStaffPermissionsFlattenInJSON(t *testing.T) {
	s := Staff{ID: "s1", StaffPermissions: StaffPermissions{CanEditEvents: true}}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["canEditEvents"] != true {
		t.Errorf("canEditEvents missing from %s", b)
	}
	if s.UserID() != "s1" {
		t.Errorf("UserID fallback = %q", s.UserID())
	}
}

func TestDateRange(t *testing.T) {
	r := DateRange{From: "2025-01-02", To: "2025-01-04"}
	for date, want := range map[string]bool{
		"2025-01-01":          false,
		"2025-01-02":          true,
		"2025-01-04T23:00:00": true,
		"2025-01-05":          false,
	} {
		if got := r.Contains(date); got != want {
			t.Errorf("Contains(%s) = %v, want %v", date, got, want)
		}
	}
}

func TestStaffLoginRole(t *testing.T) {
	if got := (Staff{}).LoginRole(); got != RoleStaff {
		t.Errorf("default role = %s", got)
	}
	if got := (Staff{Role: RoleCoach}).LoginRole(); got != RoleCoach {
		t.Errorf("stored role = %s", got)
	}
}

func TestPrincipalIsStaff(t *testing.T) {
	for role, want := range map[Role]bool{
		RoleAdmin: true, RoleCoach: true, RoleStaff: true, RolePlayer: false, "": false,
	} {
		if got := (Principal{Role: role}).IsStaff(); got != want {
			t.Errorf("IsStaff(%q) = %v", role, got)
		}
	}
}

func TestChatRoomManagedBy(t *testing.T) {
	room := ChatRoom{Participants: []ChatParticipant{
		{UserID: "owner", Role: "ADMIN", IsActive: true},
		{UserID: "member", Role: "MEMBER", IsActive: true},
		{UserID: "left", Role: "ADMIN", IsActive: false},
	}}
	if !room.ManagedBy("owner") {
		t.Error("owner should manage the room")
	}
	if room.ManagedBy("member") || room.ManagedBy("left") || room.ManagedBy("stranger") {
		t.Error("only active room admins manage the room")
	}
}
