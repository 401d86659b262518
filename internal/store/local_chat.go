package store

import (
	"context"
	"slices"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

func roomSummary(r models.ChatRoom) models.ChatRoom {
	r.RefreshLastMessage()
	r.Messages = nil
	return r
}

// ListChatRooms returns the rooms userID takes part in, most recently active
// first, without their message history. An empty userID lists every room.
func (l *LocalStore) ListChatRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.ChatRoom{}
	for _, r := range doc.ChatRooms {
		if userID == "" || r.HasParticipant(userID) {
			out = append(out, roomSummary(r))
		}
	}
	sortRoomsByActivity(out)
	return out, nil
}

func (l *LocalStore) CreateChatRoom(ctx context.Context, r *models.ChatRoom) error {
	if err := prepareChatRoom(r, l.now()); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		doc.ChatRooms = append(doc.ChatRooms, *r)
		return nil
	})
}

func findRoom(doc *state.Document, id string) (*models.ChatRoom, bool) {
	for i := range doc.ChatRooms {
		if doc.ChatRooms[i].ID == id {
			return &doc.ChatRooms[i], true
		}
	}
	return nil, false
}

// GetChatRoom returns the room with its visible messages.
func (l *LocalStore) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := findRoom(doc, id)
	if !ok {
		return nil, notFound("chat room", id)
	}
	out := *r
	out.RefreshLastMessage()
	out.Messages = r.VisibleMessages()
	return &out, nil
}

// DeleteChatRoom removes the room together with its message history.
func (l *LocalStore) DeleteChatRoom(ctx context.Context, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.ChatRooms, func(r models.ChatRoom) bool { return r.ID == id })
		if i < 0 {
			return notFound("chat room", id)
		}
		doc.ChatRooms = slices.Delete(doc.ChatRooms, i, i+1)
		return nil
	})
}

// AddChatParticipants adds existing users to the room and returns its
// participant list.
func (l *LocalStore) AddChatParticipants(ctx context.Context, roomID string, userIDs []string) ([]models.ChatParticipant, error) {
	if len(userIDs) == 0 {
		return nil, invalid("user ids are required")
	}
	now := l.now()
	var out []models.ChatParticipant
	err := l.update(ctx, func(doc *state.Document) error {
		r, ok := findRoom(doc, roomID)
		if !ok {
			return notFound("chat room", roomID)
		}
		for _, id := range userIDs {
			if _, ok := doc.ResolveUser(id); !ok {
				return invalid("user " + id + " not found or inactive")
			}
		}
		addParticipants(r, userIDs)
		r.UpdatedAt = now
		out = append([]models.ChatParticipant{}, r.Participants...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveChatParticipant marks the user as having left. The entry is kept so
// a later add reactivates it.
func (l *LocalStore) RemoveChatParticipant(ctx context.Context, roomID, userID string) error {
	now := l.now()
	return l.update(ctx, func(doc *state.Document) error {
		r, ok := findRoom(doc, roomID)
		if !ok {
			return notFound("chat room", roomID)
		}
		if !removeParticipant(r, userID) {
			return notFound("participant", userID)
		}
		r.UpdatedAt = now
		return nil
	})
}

func (l *LocalStore) ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := findRoom(doc, roomID)
	if !ok {
		return nil, notFound("chat room", roomID)
	}
	return r.VisibleMessages(), nil
}

func (l *LocalStore) PostMessage(ctx context.Context, m *models.ChatMessage) error {
	now := l.now()
	if err := prepareMessage(m, now); err != nil {
		return err
	}
	return l.update(ctx, func(doc *state.Document) error {
		r, ok := findRoom(doc, m.RoomID)
		if !ok {
			return notFound("chat room", m.RoomID)
		}
		r.Messages = append(r.Messages, *m)
		r.RefreshLastMessage()
		r.UpdatedAt = now
		return nil
	})
}

// DeleteMessage marks the message deleted. It stays in the room's history.
func (l *LocalStore) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	now := l.now()
	return l.update(ctx, func(doc *state.Document) error {
		r, ok := findRoom(doc, roomID)
		if !ok {
			return notFound("chat room", roomID)
		}
		i := slices.IndexFunc(r.Messages, func(m models.ChatMessage) bool { return m.ID == messageID })
		if i < 0 {
			return notFound("message", messageID)
		}
		if r.Messages[i].Deleted() {
			return state.ErrNoChange
		}
		r.Messages[i].DeletedAt = &now
		r.RefreshLastMessage()
		return nil
	})
}

func (l *LocalStore) ListNotifications(ctx context.Context, userID string, f models.NotificationFilter) (*models.NotificationPage, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return pageNotifications(doc.Notifications, userID, f), nil
}

func (l *LocalStore) CreateNotifications(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	if len(ns) == 0 {
		return []models.Notification{}, nil
	}
	now := l.now()
	out := make([]models.Notification, len(ns))
	for i, n := range ns {
		if err := prepareNotification(&n, now); err != nil {
			return nil, err
		}
		out[i] = n
	}
	err := l.update(ctx, func(doc *state.Document) error {
		doc.Notifications = append(doc.Notifications, out...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *LocalStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		for i := range doc.Notifications {
			n := &doc.Notifications[i]
			if n.ID == id && n.UserID == userID {
				if n.IsRead {
					return state.ErrNoChange
				}
				n.IsRead = true
				n.UpdatedAt = l.now()
				return nil
			}
		}
		return notFound("notification", id)
	})
}

func (l *LocalStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	count := 0
	err := l.update(ctx, func(doc *state.Document) error {
		now := l.now()
		for i := range doc.Notifications {
			n := &doc.Notifications[i]
			if n.UserID == userID && !n.IsRead {
				n.IsRead = true
				n.UpdatedAt = now
				count++
			}
		}
		if count == 0 {
			return state.ErrNoChange
		}
		return nil
	})
	return count, err
}

// DeleteNotification removes one of userID's notifications.
func (l *LocalStore) DeleteNotification(ctx context.Context, userID, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.Notifications, func(n models.Notification) bool {
			return n.ID == id && n.UserID == userID
		})
		if i < 0 {
			return notFound("notification", id)
		}
		doc.Notifications = slices.Delete(doc.Notifications, i, i+1)
		return nil
	})
}

func (l *LocalStore) ListPlayerNotes(ctx context.Context, playerID string, visibleToPlayerOnly bool) ([]models.PlayerNote, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Player(playerID); !ok {
		return nil, notFound("player", playerID)
	}
	out := []models.PlayerNote{}
	for _, n := range doc.PlayerNotes[playerID] {
		if !visibleToPlayerOnly || n.IsVisibleToPlayer {
			out = append(out, n)
		}
	}
	sortPlayerNotes(out)
	return out, nil
}

func (l *LocalStore) AddPlayerNote(ctx context.Context, n *models.PlayerNote) error {
	if n.Content == "" {
		return invalid("note content is required")
	}
	now := l.now()
	n.ID = ids.New(ids.PlayerNote)
	n.CreatedAt, n.UpdatedAt = now, now
	return l.update(ctx, func(doc *state.Document) error {
		if _, ok := doc.Player(n.PlayerID); !ok {
			return notFound("player", n.PlayerID)
		}
		doc.PlayerNotes[n.PlayerID] = append(doc.PlayerNotes[n.PlayerID], *n)
		return nil
	})
}

func (l *LocalStore) DeletePlayerNote(ctx context.Context, playerID, noteID string) error {
	return l.update(ctx, func(doc *state.Document) error {
		notes := doc.PlayerNotes[playerID]
		i := slices.IndexFunc(notes, func(n models.PlayerNote) bool { return n.ID == noteID })
		if i < 0 {
			return notFound("note", noteID)
		}
		doc.PlayerNotes[playerID] = slices.Delete(notes, i, i+1)
		return nil
	})
}

func (l *LocalStore) ListCoachNotes(ctx context.Context, viewer models.Principal) ([]models.CoachNote, error) {
	doc, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.CoachNote{}
	for _, n := range doc.CoachNotes {
		if n.VisibleTo(viewer) {
			out = append(out, n)
		}
	}
	sortCoachNotes(out)
	return out, nil
}

func (l *LocalStore) CreateCoachNote(ctx context.Context, n *models.CoachNote) error {
	if n.Title == "" || n.Content == "" {
		return invalid("title and content are required")
	}
	now := l.now()
	n.ID = ids.New(ids.CoachNote)
	for i := range n.VisibleToStaff {
		if n.VisibleToStaff[i].ID == "" {
			n.VisibleToStaff[i].ID = ids.New(ids.Access)
		}
	}
	n.CreatedAt, n.UpdatedAt = now, now
	return l.update(ctx, func(doc *state.Document) error {
		doc.CoachNotes = append(doc.CoachNotes, *n)
		return nil
	})
}

func (l *LocalStore) DeleteCoachNote(ctx context.Context, id string) error {
	return l.update(ctx, func(doc *state.Document) error {
		i := slices.IndexFunc(doc.CoachNotes, func(n models.CoachNote) bool { return n.ID == id })
		if i < 0 {
			return notFound("coach note", id)
		}
		doc.CoachNotes = slices.Delete(doc.CoachNotes, i, i+1)
		return nil
	})
}
