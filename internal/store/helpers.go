package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

func conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

func hashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func validatePlayer(p *models.Player) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" || p.Email == "" {
		return invalid("name and email are required")
	}
	if p.Status == "" {
		p.Status = models.StatusFullyAvailable
	}
	if !p.Status.Valid() {
		return invalid("unknown status " + string(p.Status))
	}
	return nil
}

func applyPlayerUpdate(p *models.Player, u PlayerUpdate) error {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Position != nil {
		p.Position = *u.Position
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	return validatePlayer(p)
}

func validStaffRole(r models.Role) bool {
	switch r {
	case "", models.RoleStaff, models.RoleCoach, models.RoleAdmin:
		return true
	}
	return false
}

func prepareStaff(s *models.Staff, now time.Time) error {
	s.Email = strings.TrimSpace(s.Email)
	if s.Email == "" {
		return invalid("email is required")
	}
	if !validStaffRole(s.Role) {
		return invalid("unknown staff role " + string(s.Role))
	}
	if s.Name == "" {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	if s.FirstName == "" && s.LastName == "" {
		s.FirstName, s.LastName = models.SplitName(s.Name)
	}
	if s.Name == "" {
		return invalid("name is required")
	}
	if s.ID == "" {
		s.ID = ids.New(ids.Staff)
	}
	if s.User.ID == "" {
		s.User.ID = ids.New(ids.StaffUser)
	}
	s.User.Email = s.Email
	s.User.FirstName = s.FirstName
	s.User.LastName = s.LastName
	s.User.CreatedAt = now
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// applyStaffUpdate edits s in place. A name given without first and last
// name is split on the first space.
func applyStaffUpdate(s *models.Staff, u StaffUpdate, now time.Time) error {
	if u.Name != nil && u.FirstName == nil && u.LastName == nil {
		s.FirstName, s.LastName = models.SplitName(*u.Name)
	}
	if u.FirstName != nil {
		s.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		s.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Name != nil || u.FirstName != nil || u.LastName != nil {
		s.Name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	if u.Email != nil {
		s.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		s.Phone = *u.Phone
	}
	if u.Position != nil {
		s.Position = *u.Position
	}
	if u.Role != nil {
		if !validStaffRole(*u.Role) {
			return invalid("unknown staff role " + string(*u.Role))
		}
		s.Role = *u.Role
	}
	if u.Permissions != nil {
		s.StaffPermissions = *u.Permissions
	}
	if s.Email == "" {
		return invalid("email is required")
	}
	if s.Name == "" {
		return invalid("name is required")
	}
	s.User.Email = s.Email
	s.User.FirstName = s.FirstName
	s.User.LastName = s.LastName
	s.UpdatedAt = now
	return nil
}

func prepareEvent(e *models.Event, now time.Time) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" || e.Date == "" {
		return invalid("title and date are required")
	}
	if e.Type == "" {
		e.Type = models.EventTraining
	}
	if e.ID == "" {
		e.ID = ids.New(ids.Event)
		e.CreatedAt = now
	}
	if e.Color == "" {
		e.Color = e.Type.Color()
	}
	if e.MatchDayTag != nil && *e.MatchDayTag == "" {
		e.MatchDayTag = nil
	}
	for i := range e.Participants {
		if e.Participants[i].ID == "" {
			e.Participants[i].ID = ids.New(ids.Participant)
		}
		e.Participants[i].EventID = e.ID
	}
	e.UpdatedAt = now
	return nil
}

func sortEvents(es []models.Event) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Date != es[j].Date {
			return es[i].Date < es[j].Date
		}
		return es[i].StartTime < es[j].StartTime
	})
}

func prepareChatRoom(r *models.ChatRoom, now time.Time) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Type == "" {
		r.Type = "GROUP"
	}
	if r.CreatedBy == "" {
		return invalid("room creator is required")
	}
	if !r.HasParticipant(r.CreatedBy) {
		r.Participants = append(r.Participants, models.ChatParticipant{UserID: r.CreatedBy, Role: "ADMIN", IsActive: true})
	}
	seen := map[string]bool{}
	parts := r.Participants[:0]
	for _, p := range r.Participants {
		if p.UserID == "" || seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		if p.ID == "" {
			p.ID = ids.New(ids.ChatMember)
		}
		if p.Role == "" {
			p.Role = "MEMBER"
		}
		p.IsActive = true
		parts = append(parts, p)
	}
	r.Participants = parts
	if len(r.Participants) < 2 {
		return invalid("a room needs at least two participants")
	}
	r.ID = ids.New(ids.ChatRoom)
	r.IsActive = true
	r.Messages = []models.ChatMessage{}
	r.LastMessage = nil
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

// addParticipants adds userIDs to r as members. Users who left the room are
// reactivated with their previous role.
func addParticipants(r *models.ChatRoom, userIDs []string) {
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		i := slices.IndexFunc(r.Participants, func(p models.ChatParticipant) bool { return p.UserID == id })
		if i >= 0 {
			r.Participants[i].IsActive = true
			continue
		}
		r.Participants = append(r.Participants, models.ChatParticipant{
			ID:       ids.New(ids.ChatMember),
			UserID:   id,
			Role:     "MEMBER",
			IsActive: true,
		})
	}
}

// removeParticipant marks userID as having left r. It reports false when
// userID is not an active member.
func removeParticipant(r *models.ChatRoom, userID string) bool {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID && r.Participants[i].IsActive {
			r.Participants[i].IsActive = false
			return true
		}
	}
	return false
}

func prepareMessage(m *models.ChatMessage, now time.Time) error {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return invalid("message content is required")
	}
	m.ID = ids.New(ids.ChatMessage)
	m.CreatedAt = now
	m.DeletedAt = nil
	return nil
}

func sortRoomsByActivity(rooms []models.ChatRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
}

func prepareNotification(n *models.Notification, now time.Time) error {
	if n.UserID == "" || n.Title == "" {
		return invalid("notification needs a user and a title")
	}
	n.ID = ids.New(ids.Notification)
	n.ApplyDefaults()
	n.IsRead = false
	n.CreatedAt, n.UpdatedAt = now, now
	return nil
}

// pageNotifications filters one user's notifications newest first and
// applies the page window. UnreadCount covers all of the user's
// notifications, not just the page.
func pageNotifications(all []models.Notification, userID string, f models.NotificationFilter) *models.NotificationPage {
	var mine []models.Notification
	unread := 0
	for _, n := range all {
		if n.UserID != userID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		mine = append(mine, n)
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	total := len(mine)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return &models.NotificationPage{
		Notifications: append([]models.Notification{}, mine[start:end]...),
		Total:         total,
		UnreadCount:   unread,
	}
}

func sortPlayerNotes(notes []models.PlayerNote) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func sortCoachNotes(notes []models.CoachNote) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func prepareAccess(list []models.FolderAccess) []models.FolderAccess {
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = ids.New(ids.Access)
		}
	}
	return list
}

func prepareFolder(f *models.ReportFolder, now time.Time) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return invalid("folder name is required")
	}
	f.ID = ids.New(ids.Folder)
	f.VisibleToStaff = prepareAccess(f.VisibleToStaff)
	f.VisibleToPlayers = prepareAccess(f.VisibleToPlayers)
	f.CreatedAt, f.UpdatedAt = now, now
	return nil
}

func applyFolderUpdate(f *models.ReportFolder, u FolderUpdate, now time.Time) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return invalid("folder name is required")
		}
		f.Name = name
	}
	if u.Description != nil {
		f.Description = strings.TrimSpace(*u.Description)
	}
	f.UpdatedAt = now
	return nil
}

func prepareReport(r *models.Report, now time.Time) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = r.FileName
	}
	if r.Name == "" || r.FileURL == "" {
		return invalid("report name and file are required")
	}
	r.ID = ids.New(ids.Report)
	active := true
	r.IsActive = &active
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

func sortReports(rs []models.Report) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

func sortFolders(fs []models.FolderView) {
	sort.SliceStable(fs, func(i, j int) bool {
		return strings.ToLower(fs[i].Name) < strings.ToLower(fs[j].Name)
	})
}

func prepareDailyNote(n *models.DailyPlayerNote, now time.Time) error {
	if n.Date == "" || n.PlayerID == "" {
		return invalid("date and player are required")
	}
	if len(n.Date) > 10 {
		n.Date = n.Date[:10]
	}
	if n.Status == "" {
		n.Status = models.StatusFullyAvailable
	}
	if !n.Status.Valid() {
		return invalid("unknown status " + string(n.Status))
	}
	n.UpdatedAt = now
	return nil
}

func sortDailyNotes(ns []models.DailyPlayerNote) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Date != ns[j].Date {
			return ns[i].Date < ns[j].Date
		}
		return ns[i].PlayerName < ns[j].PlayerName
	})
}
