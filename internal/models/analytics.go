package models

import "time"

// DailyPlayerNote records a player's availability for one day.
type DailyPlayerNote struct {
	ID         string       `json:"id" gorm:"primaryKey"`
	Date       string       `json:"date" gorm:"index"`
	PlayerID   string       `json:"playerId" gorm:"index"`
	PlayerName string       `json:"playerName"`
	Status     PlayerStatus `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	CreatedBy  string       `json:"createdBy,omitempty"`
	CreatedAt  time.Time    `json:"createdAt,omitzero"`
	UpdatedAt  time.Time    `json:"updatedAt,omitzero"`
}

type DailyPlayerAnalytics struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Date       string    `json:"date" gorm:"index"`
	PlayerID   string    `json:"playerId" gorm:"index"`
	PlayerName string    `json:"playerName"`
	Activity   string    `json:"activity"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// DailyEventAnalytics aggregates one event type for one day. Durations are
// in minutes.
type DailyEventAnalytics struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Date          string    `json:"date" gorm:"index"`
	EventType     EventType `json:"eventType"`
	Count         int       `json:"count"`
	TotalDuration int       `json:"totalDuration"`
	AvgDuration   float64   `json:"avgDuration"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// DateRange bounds analytics queries by YYYY-MM-DD strings, inclusive.
// Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) Contains(date string) bool {
	if len(date) > 10 {
		date = date[:10]
	}
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}
