package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"squad-backend/internal/ids"
	"squad-backend/internal/models"
)

func (g *GormStore) lastMessage(db *gorm.DB, roomID string) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := db.Where("room_id = ? AND deleted_at IS NULL", roomID).Order("created_at DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListChatRooms returns the rooms userID takes part in, most recently active
// first. Participants are stored as JSON, so membership is filtered here.
func (g *GormStore) ListChatRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	db := g.db.WithContext(ctx)
	var rooms []models.ChatRoom
	if err := db.Find(&rooms).Error; err != nil {
		return nil, err
	}
	out := []models.ChatRoom{}
	for _, r := range rooms {
		if userID != "" && !r.HasParticipant(userID) {
			continue
		}
		last, err := g.lastMessage(db, r.ID)
		if err != nil {
			return nil, err
		}
		r.LastMessage = last
		out = append(out, r)
	}
	sortRoomsByActivity(out)
	return out, nil
}

func (g *GormStore) CreateChatRoom(ctx context.Context, r *models.ChatRoom) error {
	if err := prepareChatRoom(r, g.now()); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *GormStore) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	db := g.db.WithContext(ctx)
	var r models.ChatRoom
	if err := db.First(&r, "id = ?", id).Error; err != nil {
		return nil, gormErr("chat room", id, err)
	}
	msgs, err := g.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Messages = msgs
	if n := len(msgs); n > 0 {
		r.LastMessage = &msgs[n-1]
	}
	return &r, nil
}

func (g *GormStore) DeleteChatRoom(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ChatRoom{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("chat room", id)
		}
		return tx.Delete(&models.ChatMessage{}, "room_id = ?", id).Error
	})
}

func (g *GormStore) AddChatParticipants(ctx context.Context, roomID string, userIDs []string) ([]models.ChatParticipant, error) {
	if len(userIDs) == 0 {
		return nil, invalid("user ids are required")
	}
	for _, id := range userIDs {
		if _, err := g.ResolveUser(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid("user " + id + " not found or inactive")
			}
			return nil, err
		}
	}
	var r models.ChatRoom
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", roomID).Error; err != nil {
			return gormErr("chat room", roomID, err)
		}
		addParticipants(&r, userIDs)
		r.UpdatedAt = g.now()
		return tx.Save(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Participants, nil
}

func (g *GormStore) RemoveChatParticipant(ctx context.Context, roomID, userID string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.ChatRoom
		if err := tx.First(&r, "id = ?", roomID).Error; err != nil {
			return gormErr("chat room", roomID, err)
		}
		if !removeParticipant(&r, userID) {
			return notFound("participant", userID)
		}
		r.UpdatedAt = g.now()
		return tx.Save(&r).Error
	})
}

func (g *GormStore) ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	db := g.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.ChatRoom{}).Where("id = ?", roomID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, notFound("chat room", roomID)
	}
	out := []models.ChatMessage{}
	if err := db.Where("room_id = ? AND deleted_at IS NULL", roomID).Order("created_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) PostMessage(ctx context.Context, m *models.ChatMessage) error {
	now := g.now()
	if err := prepareMessage(m, now); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ChatRoom{}).Where("id = ?", m.RoomID).Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("chat room", m.RoomID)
		}
		return tx.Create(m).Error
	})
}

// DeleteMessage sets deleted_at; the row is kept.
func (g *GormStore) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	db := g.db.WithContext(ctx)
	var m models.ChatMessage
	if err := db.Where("id = ? AND room_id = ?", messageID, roomID).First(&m).Error; err != nil {
		return gormErr("message", messageID, err)
	}
	if m.Deleted() {
		return nil
	}
	return db.Model(&m).Update("deleted_at", g.now()).Error
}

func (g *GormStore) ListNotifications(ctx context.Context, userID string, f models.NotificationFilter) (*models.NotificationPage, error) {
	db := g.db.WithContext(ctx)
	var unread int64
	if err := db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread).Error; err != nil {
		return nil, err
	}
	q := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	q = q.Order("created_at DESC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []models.Notification{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return &models.NotificationPage{Notifications: out, Total: int(total), UnreadCount: int(unread)}, nil
}

func (g *GormStore) CreateNotifications(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	if len(ns) == 0 {
		return []models.Notification{}, nil
	}
	now := g.now()
	out := make([]models.Notification, len(ns))
	for i, n := range ns {
		if err := prepareNotification(&n, now); err != nil {
			return nil, err
		}
		out[i] = n
	}
	if err := g.db.WithContext(ctx).CreateInBatches(&out, 200).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	db := g.db.WithContext(ctx)
	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return gormErr("notification", id, err)
	}
	if n.IsRead {
		return nil
	}
	return db.Model(&n).Updates(map[string]any{"is_read": true, "updated_at": g.now()}).Error
}

func (g *GormStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res := g.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "updated_at": g.now()})
	return int(res.RowsAffected), res.Error
}

func (g *GormStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.Notification{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("notification", id)
	}
	return nil
}

func (g *GormStore) playerExists(db *gorm.DB, id string) (bool, error) {
	var n int64
	if err := db.Model(&models.Player{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *GormStore) ListPlayerNotes(ctx context.Context, playerID string, visibleToPlayerOnly bool) ([]models.PlayerNote, error) {
	db := g.db.WithContext(ctx)
	ok, err := g.playerExists(db, playerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("player", playerID)
	}
	q := db.Where("player_id = ?", playerID)
	if visibleToPlayerOnly {
		q = q.Where("is_visible_to_player = ?", true)
	}
	out := []models.PlayerNote{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	sortPlayerNotes(out)
	return out, nil
}

func (g *GormStore) AddPlayerNote(ctx context.Context, n *models.PlayerNote) error {
	if n.Content == "" {
		return invalid("note content is required")
	}
	db := g.db.WithContext(ctx)
	ok, err := g.playerExists(db, n.PlayerID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("player", n.PlayerID)
	}
	now := g.now()
	n.ID = ids.New(ids.PlayerNote)
	n.CreatedAt, n.UpdatedAt = now, now
	return db.Create(n).Error
}

func (g *GormStore) DeletePlayerNote(ctx context.Context, playerID, noteID string) error {
	res := g.db.WithContext(ctx).Delete(&models.PlayerNote{}, "id = ? AND player_id = ?", noteID, playerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("note", noteID)
	}
	return nil
}

func (g *GormStore) ListCoachNotes(ctx context.Context, viewer models.Principal) ([]models.CoachNote, error) {
	var all []models.CoachNote
	if err := g.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, err
	}
	out := []models.CoachNote{}
	for _, n := range all {
		if n.VisibleTo(viewer) {
			out = append(out, n)
		}
	}
	sortCoachNotes(out)
	return out, nil
}

func (g *GormStore) CreateCoachNote(ctx context.Context, n *models.CoachNote) error {
	if n.Title == "" || n.Content == "" {
		return invalid("title and content are required")
	}
	now := g.now()
	n.ID = ids.New(ids.CoachNote)
	for i := range n.VisibleToStaff {
		if n.VisibleToStaff[i].ID == "" {
			n.VisibleToStaff[i].ID = ids.New(ids.Access)
		}
	}
	n.CreatedAt, n.UpdatedAt = now, now
	return g.db.WithContext(ctx).Create(n).Error
}

func (g *GormStore) DeleteCoachNote(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&models.CoachNote{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("coach note", id)
	}
	return nil
}
