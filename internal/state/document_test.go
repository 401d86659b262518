package state

import (
	"testing"

	"squad-backend/internal/models"
)

func TestDecodeFillsMissingCollections(t *testing.T) {
	doc, err := Decode([]byte(`{"players":[{"id":"p1","name":"A B","email":"a@x.com"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Players) != 1 {
		t.Fatalf("players = %d", len(doc.Players))
	}
	if doc.PlayerUsers == nil || doc.CoachNotes == nil || doc.PlayerMediaFiles == nil || doc.DailyPlayerNotes == nil {
		t.Error("missing keys must default to empty collections")
	}
	if doc.WellnessSettings.SurveyID != "cmg6klyig0004l704u1kd78zb" {
		t.Errorf("wellness defaults not applied: %+v", doc.WellnessSettings)
	}
	if doc.Version != SchemaVersion {
		t.Errorf("version = %d", doc.Version)
	}
}

func TestDecodeLegacyFolderMap(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"reportFolders": {
			"root": [{"id": "f1", "name": "Season"}],
			"f1": [{"id": "f2", "name": "Match reports"}]
		},
		"playerReportFolders": [{"id": "pf1", "name": "Mine"}]
	}`)
	doc, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.ReportFolders) != 2 {
		t.Fatalf("folders = %+v", doc.ReportFolders)
	}
	f1, ok := doc.Folder(models.ScopeStaff, "f1")
	if !ok || f1.ParentID != "" {
		t.Errorf("f1 = %+v, want root folder", f1)
	}
	f2, ok := doc.Folder(models.ScopeStaff, "f2")
	if !ok || f2.ParentID != "f1" {
		t.Errorf("f2 = %+v, want parent f1", f2)
	}
	if _, ok := doc.Folder(models.ScopePlayer, "pf1"); !ok {
		t.Error("player folder list not decoded")
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatal(err)
	}
	again, err := Decode(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.ReportFolders) != 2 {
		t.Errorf("re-encoded folders = %+v", again.ReportFolders)
	}
}

func TestDecodeMigratesLegacyUserIDs(t *testing.T) {
	data := []byte(`{
		"players": [{"id": "p1", "name": "Jane Doe"}],
		"playerUsers": [{"id": "pu1", "playerId": "p1", "email": "jane@x.com"}],
		"staff": [{"id": "s1", "name": "Sam", "user": {"id": "su1"}}, {"id": "s2", "name": "Kim"}],
		"notifications": [
			{"id": "n1", "userId": "p1"},
			{"id": "n2", "userId": "s1"},
			{"id": "n3", "userId": "pu1"},
			{"id": "n4", "userId": "s2"},
			{"id": "n5", "userId": "ghost"}
		],
		"chatRooms": [{"id": "room-1", "participants": [{"userId": "p1"}, {"userId": "s1"}]}]
	}`)
	doc, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"n1": "pu1", "n2": "su1", "n3": "pu1", "n4": "s2", "n5": "ghost"}
	for _, n := range doc.Notifications {
		if n.UserID != want[n.ID] {
			t.Errorf("%s userId = %s, want %s", n.ID, n.UserID, want[n.ID])
		}
	}
	parts := doc.ChatRooms[0].Participants
	if parts[0].UserID != "pu1" || parts[1].UserID != "su1" {
		t.Errorf("participants = %+v", parts)
	}
}

func TestDecodeCurrentVersionKeepsUserIDs(t *testing.T) {
	data := []byte(`{
		"version": 2,
		"players": [{"id": "p1"}],
		"playerUsers": [{"id": "pu1", "playerId": "p1"}],
		"notifications": [{"id": "n1", "userId": "p1"}]
	}`)
	doc, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Notifications[0].UserID != "p1" {
		t.Errorf("userId rewritten on a current document: %s", doc.Notifications[0].UserID)
	}
}

func TestResolveUser(t *testing.T) {
	doc := NewDocument()
	doc.Players = []models.Player{{ID: "p1"}, {ID: "p2"}}
	doc.PlayerUsers = []models.PlayerUser{
		{ID: "pu1", PlayerID: "p1", Email: "a@x.com", Role: models.RolePlayer, IsActive: true},
		{ID: "pu2", PlayerID: "gone", Email: "b@x.com", IsActive: true},
		{ID: "pu3", PlayerID: "p2", Email: "c@x.com", Role: models.RolePlayer},
	}
	doc.Staff = []models.Staff{
		{ID: "s1", Email: "s@x.com", User: models.StaffUser{ID: "su1"}},
		{ID: "s2", Email: "c@club.com", Role: models.RoleCoach, User: models.StaffUser{ID: "su2"}},
	}

	tests := []struct {
		id   string
		ok   bool
		want models.Principal
	}{
		{"pu1", true, models.Principal{UserID: "pu1", Email: "a@x.com", Role: models.RolePlayer, PlayerID: "p1"}},
		{"su1", true, models.Principal{UserID: "su1", Email: "s@x.com", Role: models.RoleStaff, StaffID: "s1"}},
		{"su2", true, models.Principal{UserID: "su2", Email: "c@club.com", Role: models.RoleCoach, StaffID: "s2"}},
		{"pu2", false, models.Principal{}},
		{"pu3", false, models.Principal{}},
		{"p1", false, models.Principal{}},
		{"", false, models.Principal{}},
	}
	for _, tt := range tests {
		got, ok := doc.ResolveUser(tt.id)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ResolveUser(%q) = %+v, %v; want %+v, %v", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAccountByEmailIsCaseInsensitive(t *testing.T) {
	doc := NewDocument()
	doc.PlayerUsers = []models.PlayerUser{{ID: "pu1", Email: "Jane@X.com"}}
	doc.Staff = []models.Staff{{ID: "s1", Email: "coach@x.com", Name: "Sam Lee", User: models.StaffUser{ID: "su1"}}}

	a, ok := doc.AccountByEmail(" jane@x.COM ")
	if !ok || a.UserID != "pu1" || a.Role != models.RolePlayer {
		t.Errorf("player lookup = %+v, %v", a, ok)
	}
	a, ok = doc.AccountByEmail("coach@x.com")
	if !ok || a.UserID != "su1" || a.FirstName != "Sam" || a.LastName != "Lee" {
		t.Errorf("staff lookup = %+v, %v", a, ok)
	}
	if _, ok := doc.AccountByEmail(""); ok {
		t.Error("empty email must not match")
	}
}

func TestIsDescendant(t *testing.T) {
	doc := NewDocument()
	doc.ReportFolders = FolderList{
		{ID: "a"},
		{ID: "b", ParentID: "a"},
		{ID: "c", ParentID: "b"},
		{ID: "x", ParentID: "y"},
		{ID: "y", ParentID: "x"},
	}
	tests := []struct {
		id, ancestor string
		want         bool
	}{
		{"c", "a", true},
		{"a", "a", true},
		{"a", "c", false},
		{"x", "a", false},
		{"missing", "a", false},
	}
	for _, tt := range tests {
		if got := doc.IsDescendant(models.ScopeStaff, tt.id, tt.ancestor); got != tt.want {
			t.Errorf("IsDescendant(%s, %s) = %v", tt.id, tt.ancestor, got)
		}
	}
}

func TestUserIDs(t *testing.T) {
	doc := NewDocument()
	doc.PlayerUsers = []models.PlayerUser{{ID: "pu1"}, {ID: "pu2"}}
	doc.Staff = []models.Staff{{ID: "s1", User: models.StaffUser{ID: "su1"}}, {ID: "s2"}}
	got := doc.UserIDs()
	want := []string{"pu1", "pu2", "su1", "s2"}
	if len(got) != len(want) {
		t.Fatalf("UserIDs = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UserIDs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
