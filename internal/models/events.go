package models

import (
	"time"
)

type EventType string

const (
	EventTraining      EventType = "TRAINING"
	EventMatch         EventType = "MATCH"
	EventMeeting       EventType = "MEETING"
	EventMedical       EventType = "MEDICAL"
	EventRecovery      EventType = "RECOVERY"
	EventMeal          EventType = "MEAL"
	EventRest          EventType = "REST"
	EventLBGym         EventType = "LB_GYM"
	EventUBGym         EventType = "UB_GYM"
	EventPreActivation EventType = "PRE_ACTIVATION"
	EventRehab         EventType = "REHAB"
	EventStaffMeeting  EventType = "STAFF_MEETING"
	EventVideoAnalysis EventType = "VIDEO_ANALYSIS"
	EventDayOff        EventType = "DAY_OFF"
	EventTravel        EventType = "TRAVEL"
	EventOther         EventType = "OTHER"
)

var eventColors = map[EventType]string{
	EventTraining:      "#F59E0B",
	EventMatch:         "#EF4444",
	EventMeeting:       "#3B82F6",
	EventMedical:       "#10B981",
	EventRecovery:      "#8B5CF6",
	EventMeal:          "#F97316",
	EventRest:          "#6366F1",
	EventLBGym:         "#DC2626",
	EventUBGym:         "#B91C1C",
	EventPreActivation: "#EA580C",
	EventRehab:         "#059669",
	EventStaffMeeting:  "#1D4ED8",
	EventVideoAnalysis: "#7C3AED",
	EventDayOff:        "#F59E0B",
	EventTravel:        "#06B6D4",
}

const defaultEventColor = "#6B7280"

// Color is the calendar color for the event type.
func (t EventType) Color() string {
	if c, ok := eventColors[t]; ok {
		return c
	}
	return defaultEventColor
}

type EventParticipant struct {
	ID       string `json:"id"`
	EventID  string `json:"eventId"`
	PlayerID string `json:"playerId,omitempty"`
	StaffID  string `json:"staffId,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Event is a calendar entry. Date is an ISO date (YYYY-MM-DD, optionally
// followed by a time part); StartTime and EndTime are HH:MM wall clock times.
type Event struct {
	ID                    string             `json:"id" gorm:"primaryKey"`
	Title                 string             `json:"title"`
	Description           string             `json:"description,omitempty"`
	Type                  EventType          `json:"type"`
	Date                  string             `json:"date" gorm:"index"`
	StartTime             string             `json:"startTime"`
	EndTime               string             `json:"endTime"`
	Location              string             `json:"location,omitempty"`
	Icon                  string             `json:"icon,omitempty"`
	Color                 string             `json:"color,omitempty"`
	MatchDayTag           *string            `json:"matchDayTag,omitempty"`
	IsAllDay              bool               `json:"isAllDay"`
	IsRecurring           bool               `json:"isRecurring"`
	AllowPlayerCreation   bool               `json:"allowPlayerCreation"`
	AllowPlayerReschedule bool               `json:"allowPlayerReschedule"`
	Participants          []EventParticipant `json:"participants" gorm:"serializer:json"`
	CreatedAt             time.Time          `json:"createdAt,omitzero"`
	UpdatedAt             time.Time          `json:"updatedAt,omitzero"`
}

// Day returns the YYYY-MM-DD part of Date.
func (e Event) Day() string {
	if len(e.Date) >= 10 {
		return e.Date[:10]
	}
	return e.Date
}

// Duration is the scheduled length of the event. All-day events and events
// with unparsable or inverted times report zero.
func (e Event) Duration() time.Duration {
	if e.IsAllDay {
		return 0
	}
	start, err := time.Parse("15:04", e.StartTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", e.EndTime)
	if err != nil || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// PlayerIDs lists the players taking part, in participant order.
func (e Event) PlayerIDs() []string {
	var out []string
	for _, p := range e.Participants {
		if p.PlayerID != "" {
			out = append(out, p.PlayerID)
		}
	}
	return out
}
