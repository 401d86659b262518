package models

import "time"

type NoteAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type PlayerNote struct {
	ID                string     `json:"id" gorm:"primaryKey"`
	PlayerID          string     `json:"playerId" gorm:"index"`
	Title             string     `json:"title,omitempty"`
	Content           string     `json:"content"`
	Type              string     `json:"type,omitempty"`
	IsVisibleToPlayer bool       `json:"isVisibleToPlayer"`
	IsPinned          bool       `json:"isPinned"`
	CreatedBy         string     `json:"createdBy"`
	Author            NoteAuthor `json:"author" gorm:"embedded;embeddedPrefix:author_"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt,omitzero"`
}

type StaffAccess struct {
	ID      string `json:"id"`
	StaffID string `json:"staffId"`
	CanView bool   `json:"canView"`
}

type CoachNote struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	IsPinned       bool          `json:"isPinned"`
	AuthorID       string        `json:"authorId"`
	VisibleToStaff []StaffAccess `json:"visibleToStaff" gorm:"serializer:json"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt,omitzero"`
}

// VisibleTo reports whether the viewer may read the note. Admins see
// everything; staff need an explicit grant; players never see coach notes.
func (n CoachNote) VisibleTo(viewer Principal) bool {
	if viewer.IsAdmin() {
		return true
	}
	if viewer.StaffID == "" {
		return false
	}
	for _, a := range n.VisibleToStaff {
		if a.StaffID == viewer.StaffID && a.CanView {
			return true
		}
	}
	return false
}
