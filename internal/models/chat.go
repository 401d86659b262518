package models

import "time"

type ChatParticipant struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"isActive"`
}

// ChatMessage is never physically removed; DeletedAt marks it as erased.
type ChatMessage struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	RoomID    string     `json:"roomId,omitempty" gorm:"index"`
	SenderID  string     `json:"senderId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (m ChatMessage) Deleted() bool { return m.DeletedAt != nil }

type ChatRoom struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	CreatedBy    string            `json:"createdBy"`
	IsActive     bool              `json:"isActive"`
	Participants []ChatParticipant `json:"participants" gorm:"serializer:json"`
	Messages     []ChatMessage     `json:"messages" gorm:"-"`
	LastMessage  *ChatMessage      `json:"lastMessage,omitempty" gorm:"-"`
	CreatedAt    time.Time         `json:"createdAt,omitzero"`
	UpdatedAt    time.Time         `json:"updatedAt,omitzero"`
}

// HasParticipant reports whether userID is an active member of the room.
func (r ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID && p.IsActive {
			return true
		}
	}
	return false
}

// ManagedBy reports whether userID is an active room admin.
func (r ChatRoom) ManagedBy(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID && p.IsActive && p.Role == "ADMIN" {
			return true
		}
	}
	return false
}

// VisibleMessages returns the messages that have not been soft deleted.
func (r ChatRoom) VisibleMessages() []ChatMessage {
	out := make([]ChatMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		if !m.Deleted() {
			out = append(out, m)
		}
	}
	return out
}

// RefreshLastMessage recomputes the LastMessage cache from Messages,
// skipping soft-deleted entries.
func (r *ChatRoom) RefreshLastMessage() {
	r.LastMessage = nil
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if !r.Messages[i].Deleted() {
			m := r.Messages[i]
			r.LastMessage = &m
			return
		}
	}
}
