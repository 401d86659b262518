package state

import (
	"encoding/json"
	"fmt"
	"sort"

	"squad-backend/internal/models"
)

// SchemaVersion is written into every document. Version 0 files predate the
// field; version 1 stored reportFolders keyed by parent and referenced users
// by player or staff id.
const SchemaVersion = 2

// Document is the whole local-dev state. Every collection is present after
// NewDocument or Decode; nil is never observed by callers.
type Document struct {
	Version              int                             `json:"version"`
	Players              []models.Player                 `json:"players"`
	PlayerUsers          []models.PlayerUser             `json:"playerUsers"`
	Staff                []models.Staff                  `json:"staff"`
	Teams                []models.Team                   `json:"teams"`
	Events               []models.Event                  `json:"events"`
	ChatRooms            []models.ChatRoom               `json:"chatRooms"`
	Notifications        []models.Notification           `json:"notifications"`
	PlayerNotes          map[string][]models.PlayerNote  `json:"playerNotes"`
	CoachNotes           []models.CoachNote              `json:"coachNotes"`
	ReportFolders        FolderList                      `json:"reportFolders"`
	PlayerReportFolders  FolderList                      `json:"playerReportFolders"`
	Reports              []models.Report                 `json:"reports"`
	PlayerReports        []models.Report                 `json:"playerReports"`
	PlayerAvatars        map[string]string               `json:"playerAvatars"`
	PlayerTags           map[string]string               `json:"playerTags"`
	PlayerMediaFiles     map[string][]models.MediaFile   `json:"playerMediaFiles"`
	WellnessSettings     models.WellnessSettings         `json:"wellnessSettings"`
	DailyPlayerNotes     []models.DailyPlayerNote        `json:"dailyPlayerNotes"`
	DailyPlayerAnalytics []models.DailyPlayerAnalytics   `json:"dailyPlayerAnalytics"`
	DailyEventAnalytics  []models.DailyEventAnalytics    `json:"dailyEventAnalytics"`
}

// NewDocument returns the default document: every collection empty and the
// wellness settings populated with their sentinel values.
func NewDocument() *Document {
	d := &Document{}
	d.normalize()
	return d
}

// Decode parses a stored document, upgrading older schema versions.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	d.normalize()
	return &d, nil
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

func (d *Document) normalize() {
	if d.Players == nil {
		d.Players = []models.Player{}
	}
	if d.PlayerUsers == nil {
		d.PlayerUsers = []models.PlayerUser{}
	}
	if d.Staff == nil {
		d.Staff = []models.Staff{}
	}
	if d.Teams == nil {
		d.Teams = []models.Team{}
	}
	if d.Events == nil {
		d.Events = []models.Event{}
	}
	if d.ChatRooms == nil {
		d.ChatRooms = []models.ChatRoom{}
	}
	if d.Notifications == nil {
		d.Notifications = []models.Notification{}
	}
	if d.PlayerNotes == nil {
		d.PlayerNotes = map[string][]models.PlayerNote{}
	}
	if d.CoachNotes == nil {
		d.CoachNotes = []models.CoachNote{}
	}
	if d.ReportFolders == nil {
		d.ReportFolders = FolderList{}
	}
	if d.PlayerReportFolders == nil {
		d.PlayerReportFolders = FolderList{}
	}
	if d.Reports == nil {
		d.Reports = []models.Report{}
	}
	if d.PlayerReports == nil {
		d.PlayerReports = []models.Report{}
	}
	if d.PlayerAvatars == nil {
		d.PlayerAvatars = map[string]string{}
	}
	if d.PlayerTags == nil {
		d.PlayerTags = map[string]string{}
	}
	if d.PlayerMediaFiles == nil {
		d.PlayerMediaFiles = map[string][]models.MediaFile{}
	}
	if d.WellnessSettings == (models.WellnessSettings{}) {
		d.WellnessSettings = models.DefaultWellnessSettings()
	}
	if d.DailyPlayerNotes == nil {
		d.DailyPlayerNotes = []models.DailyPlayerNote{}
	}
	if d.DailyPlayerAnalytics == nil {
		d.DailyPlayerAnalytics = []models.DailyPlayerAnalytics{}
	}
	if d.DailyEventAnalytics == nil {
		d.DailyEventAnalytics = []models.DailyEventAnalytics{}
	}

	for i := range d.Staff {
		if d.Staff[i].User.ID == "" {
			d.Staff[i].User.ID = d.Staff[i].ID
		}
	}
	if d.Version < SchemaVersion {
		d.migrateUserIDs()
		d.Version = SchemaVersion
	}
}

// migrateUserIDs rewrites notification and chat participant user ids that
// point at a player or staff record to the matching account id.
func (d *Document) migrateUserIDs() {
	canonical := make(map[string]string)
	for _, u := range d.PlayerUsers {
		canonical[u.ID] = u.ID
	}
	for _, s := range d.Staff {
		canonical[s.UserID()] = s.UserID()
	}
	for _, u := range d.PlayerUsers {
		if _, ok := canonical[u.PlayerID]; !ok && u.PlayerID != "" {
			canonical[u.PlayerID] = u.ID
		}
	}
	for _, s := range d.Staff {
		if _, ok := canonical[s.ID]; !ok {
			canonical[s.ID] = s.UserID()
		}
	}
	for i, n := range d.Notifications {
		if id, ok := canonical[n.UserID]; ok {
			d.Notifications[i].UserID = id
		}
	}
	for i := range d.ChatRooms {
		for j, p := range d.ChatRooms[i].Participants {
			if id, ok := canonical[p.UserID]; ok {
				d.ChatRooms[i].Participants[j].UserID = id
			}
		}
	}
}

// FolderList is a flat list of report folders. Older documents stored folders
// grouped by parent id ({"root": [...], "<parentId>": [...]}); both shapes are
// accepted and the flat shape is always written.
type FolderList []models.ReportFolder

func (l *FolderList) UnmarshalJSON(data []byte) error {
	var flat []models.ReportFolder
	if err := json.Unmarshal(data, &flat); err == nil {
		*l = flat
		return nil
	}

	var grouped map[string][]models.ReportFolder
	if err := json.Unmarshal(data, &grouped); err != nil {
		return fmt.Errorf("report folders: unsupported format: %w", err)
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	// root first so parents precede children in the common two-level case
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "root" || keys[j] == "root" {
			return keys[i] == "root" && keys[j] != "root"
		}
		return keys[i] < keys[j]
	})
	out := FolderList{}
	for _, k := range keys {
		for _, f := range grouped[k] {
			if f.ParentID == "" && k != "root" {
				f.ParentID = k
			}
			out = append(out, f)
		}
	}
	*l = out
	return nil
}

// Folders returns the folder list for a report scope.
func (d *Document) Folders(scope models.ReportScope) *FolderList {
	if scope == models.ScopePlayer {
		return &d.PlayerReportFolders
	}
	return &d.ReportFolders
}

// ReportList returns the report list for a report scope.
func (d *Document) ReportList(scope models.ReportScope) *[]models.Report {
	if scope == models.ScopePlayer {
		return &d.PlayerReports
	}
	return &d.Reports
}

// Folder looks up a folder by id within a scope.
func (d *Document) Folder(scope models.ReportScope, id string) (*models.ReportFolder, bool) {
	list := *d.Folders(scope)
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}

// IsDescendant reports whether folder id sits below ancestor in the scope's
// tree. A broken chain (missing parent or an existing cycle) stops the walk.
func (d *Document) IsDescendant(scope models.ReportScope, id, ancestor string) bool {
	seen := map[string]bool{}
	for cur := id; cur != "" && !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		f, ok := d.Folder(scope, cur)
		if !ok {
			return false
		}
		cur = f.ParentID
	}
	return false
}
