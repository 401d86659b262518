// Package analytics derives the daily player and event aggregates from
// daily player notes and the calendar.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"squad-backend/internal/models"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// Store is the subset of store.Store that analytics reads and writes.
type Store interface {
	ListPlayers(ctx context.Context) ([]models.PlayerProfile, error)
	ListDailyPlayerNotes(ctx context.Context, r models.DateRange) ([]models.DailyPlayerNote, error)
	ListEvents(ctx context.Context, r models.DateRange) ([]models.Event, error)
	SaveDailyAnalytics(ctx context.Context, date string, players []models.DailyPlayerAnalytics, events []models.DailyEventAnalytics) error
}

// Summary is the analytics of one day.
type Summary struct {
	Date    string                        `json:"date"`
	Players []models.DailyPlayerAnalytics `json:"players"`
	Events  []models.DailyEventAnalytics  `json:"events"`
}

// Summarize builds one activity row per player and one row per event type.
// A player's activity is the status from that day's note, or the player's
// current status when no note was written.
func Summarize(date string, players []models.PlayerProfile, notes []models.DailyPlayerNote, events []models.Event) Summary {
	s := Summary{Date: date, Players: []models.DailyPlayerAnalytics{}, Events: []models.DailyEventAnalytics{}}

	noted := map[string]models.DailyPlayerNote{}
	for _, n := range notes {
		if day(n.Date) == date {
			noted[n.PlayerID] = n
		}
	}
	seen := map[string]bool{}
	for _, p := range players {
		seen[p.ID] = true
		status := p.Status
		if n, ok := noted[p.ID]; ok {
			status = n.Status
		}
		if status == "" {
			status = models.StatusFullyAvailable
		}
		s.Players = append(s.Players, models.DailyPlayerAnalytics{
			Date: date, PlayerID: p.ID, PlayerName: p.Name, Activity: status.Label(), Count: 1,
		})
	}
	// Notes for players that have since been removed still count.
	for _, n := range noted {
		if seen[n.PlayerID] {
			continue
		}
		s.Players = append(s.Players, models.DailyPlayerAnalytics{
			Date: date, PlayerID: n.PlayerID, PlayerName: n.PlayerName, Activity: n.Status.Label(), Count: 1,
		})
	}
	sort.Slice(s.Players, func(i, j int) bool {
		if s.Players[i].PlayerName != s.Players[j].PlayerName {
			return s.Players[i].PlayerName < s.Players[j].PlayerName
		}
		return s.Players[i].PlayerID < s.Players[j].PlayerID
	})

	byType := map[models.EventType]*models.DailyEventAnalytics{}
	for _, e := range events {
		if e.Day() != date {
			continue
		}
		t := e.Type
		if t == "" {
			t = models.EventOther
		}
		a, ok := byType[t]
		if !ok {
			a = &models.DailyEventAnalytics{Date: date, EventType: t}
			byType[t] = a
		}
		a.Count++
		a.TotalDuration += Duration(e.StartTime, e.EndTime)
	}
	for _, a := range byType {
		a.AvgDuration = math.Round(float64(a.TotalDuration) / float64(a.Count))
		s.Events = append(s.Events, *a)
	}
	sort.Slice(s.Events, func(i, j int) bool { return s.Events[i].EventType < s.Events[j].EventType })
	return s
}

// Duration returns the minutes between two HH:MM times, or 0 when either is
// missing or the end is not after the start.
func Duration(start, end string) int {
	st, err1 := time.Parse("15:04", clock(start))
	et, err2 := time.Parse("15:04", clock(end))
	if err1 != nil || err2 != nil || !et.After(st) {
		return 0
	}
	return int(et.Sub(st).Minutes())
}

func clock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		s = s[:5]
	}
	return s
}

func day(d string) string {
	if len(d) > 10 {
		return d[:10]
	}
	return d
}

// Generate summarizes date from the store and saves the result, replacing
// any earlier run for the same day.
func Generate(ctx context.Context, st Store, date string) (*Summary, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	r := models.DateRange{From: date, To: date}
	players, err := st.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	notes, err := st.ListDailyPlayerNotes(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list daily notes: %w", err)
	}
	events, err := st.ListEvents(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s := Summarize(date, players, notes, events)
	if err := st.SaveDailyAnalytics(ctx, date, s.Players, s.Events); err != nil {
		return nil, fmt.Errorf("save analytics: %w", err)
	}
	return &s, nil
}

// Scheduler regenerates today's analytics on a fixed interval.
type Scheduler struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewScheduler(st Store, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{store: st, interval: interval, logger: logger, now: time.Now}
}

// Run generates once immediately and then on every tick until ctx is done.
// A non-positive interval disables the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("analytics scheduler disabled")
		return nil
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	date := s.now().Format(dateLayout)
	sum, err := Generate(ctx, s.store, date)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("generate analytics", "date", date, "err", err)
		}
		return
	}
	s.logger.Info("analytics generated", "date", date, "players", len(sum.Players), "event_types", len(sum.Events))
}
