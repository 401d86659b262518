package models

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
	NotificationError   NotificationType = "ERROR"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

type Category string

const (
	CategorySystem   Category = "SYSTEM"
	CategoryPlayer   Category = "PLAYER"
	CategoryEvent    Category = "EVENT"
	CategoryWellness Category = "WELLNESS"
	CategoryChat     Category = "CHAT"
	CategoryReport   Category = "REPORT"
	CategoryGeneral  Category = "GENERAL"
)

// Notification.UserID holds a canonical user id (an account id).
type Notification struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	UserID      string           `json:"userId" gorm:"index"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	Priority    Priority         `json:"priority"`
	Category    Category         `json:"category"`
	RelatedID   *string          `json:"relatedId,omitempty"`
	RelatedType *string          `json:"relatedType,omitempty"`
	IsRead      bool             `json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt,omitzero"`
}

// ApplyDefaults fills the enum fields left empty by callers.
func (n *Notification) ApplyDefaults() {
	if n.Type == "" {
		n.Type = NotificationInfo
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Category == "" {
		n.Category = CategoryGeneral
	}
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unreadCount"`
}
