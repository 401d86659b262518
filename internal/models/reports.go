package models

import "time"

// ReportScope selects one of the two independent report trees.
type ReportScope string

const (
	ScopeStaff  ReportScope = "staff"
	ScopePlayer ReportScope = "player"
)

func (s ReportScope) Valid() bool { return s == ScopeStaff || s == ScopePlayer }

type FolderAccess struct {
	ID       string `json:"id"`
	StaffID  string `json:"staffId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	CanView  bool   `json:"canView"`
}

// ReportFolder forms a tree through ParentID; an empty ParentID is the root.
type ReportFolder struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	ParentID         string         `json:"parentId,omitempty" gorm:"index"`
	CreatedBy        string         `json:"createdBy"`
	VisibleToStaff   []FolderAccess `json:"visibleToStaff,omitempty" gorm:"serializer:json"`
	VisibleToPlayers []FolderAccess `json:"visibleToPlayers,omitempty" gorm:"serializer:json"`
	CreatedAt        time.Time      `json:"createdAt,omitzero"`
	UpdatedAt        time.Time      `json:"updatedAt,omitzero"`
}

// VisibleTo reports whether the viewer may list the folder.
func (f ReportFolder) VisibleTo(viewer Principal) bool {
	if viewer.IsAdmin() {
		return true
	}
	if viewer.StaffID != "" {
		for _, a := range f.VisibleToStaff {
			if a.StaffID == viewer.StaffID && a.CanView {
				return true
			}
		}
	}
	if viewer.PlayerID != "" {
		for _, a := range f.VisibleToPlayers {
			if a.PlayerID == viewer.PlayerID && a.CanView {
				return true
			}
		}
	}
	return false
}

type FolderCount struct {
	Reports  int `json:"reports"`
	Children int `json:"children"`
}

type FolderView struct {
	ReportFolder
	Count FolderCount `json:"_count"`
}

type Report struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	FolderID     string    `json:"folderId,omitempty" gorm:"index"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	IsActive     *bool     `json:"isActive,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

// Active treats a missing flag as active; older documents never wrote it.
func (r Report) Active() bool { return r.IsActive == nil || *r.IsActive }

type MediaFile struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	PlayerID     string    `json:"playerId" gorm:"index"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	Tags         []string  `json:"tags,omitempty" gorm:"serializer:json"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type WellnessSettings struct {
	CSVURL   string `json:"csvUrl"`
	SurveyID string `json:"surveyId"`
	BaseURL  string `json:"baseUrl"`
}

// DefaultWellnessSettings are the sentinel settings written into a fresh
// document.
func DefaultWellnessSettings() WellnessSettings {
	return WellnessSettings{
		CSVURL:   "https://wellness-monitor-tan.vercel.app/api/surveys/cmg6klyig0004l704u1kd78zb/export/csv",
		SurveyID: "cmg6klyig0004l704u1kd78zb",
		BaseURL:  "https://wellness-monitor-tan.vercel.app",
	}
}
