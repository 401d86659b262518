// Package notify creates notifications and fans them out to live
// subscribers and, for urgent ones, to e-mail.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"squad-backend/internal/models"
)

// Store is the subset of store.Store the dispatcher writes through.
type Store interface {
	CreateNotifications(ctx context.Context, ns []models.Notification) ([]models.Notification, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
}

type Mailer interface {
	IsConfigured() bool
	Send(ctx context.Context, to, subject, body string) error
}

// Draft is a notification before it has recipients. Empty UserIDs means
// every user.
type Draft struct {
	UserIDs     []string
	Title       string
	Message     string
	Type        models.NotificationType
	Priority    models.Priority
	Category    models.Category
	RelatedID   *string
	RelatedType *string
}

type Dispatcher struct {
	store  Store
	broker *Broker
	mailer Mailer
	logger *slog.Logger
}

// NewDispatcher returns a dispatcher. mailer may be nil.
func NewDispatcher(s Store, b *Broker, mailer Mailer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: s, broker: b, mailer: mailer, logger: logger}
}

// Notify persists one notification per recipient and publishes each to the
// recipient's stream.
func (d *Dispatcher) Notify(ctx context.Context, dr Draft) ([]models.Notification, error) {
	recipients := dr.UserIDs
	if len(recipients) == 0 {
		all, err := d.store.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list recipients: %w", err)
		}
		recipients = all
	}
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		return []models.Notification{}, nil
	}

	ns := make([]models.Notification, len(recipients))
	for i, uid := range recipients {
		ns[i] = models.Notification{
			UserID:      uid,
			Title:       dr.Title,
			Message:     dr.Message,
			Type:        dr.Type,
			Priority:    dr.Priority,
			Category:    dr.Category,
			RelatedID:   dr.RelatedID,
			RelatedType: dr.RelatedType,
		}
	}
	created, err := d.store.CreateNotifications(ctx, ns)
	if err != nil {
		return nil, err
	}

	for _, n := range created {
		if d.broker != nil {
			data, err := json.Marshal(n)
			if err != nil {
				return nil, err
			}
			d.broker.Publish(n.UserID, data)
		}
		if n.Priority == models.PriorityUrgent {
			d.mail(ctx, n)
		}
	}
	d.logger.Debug("notifications created", "title", dr.Title, "recipients", len(created))
	return created, nil
}

// mail failures are logged; the notification itself is already stored.
func (d *Dispatcher) mail(ctx context.Context, n models.Notification) {
	if d.mailer == nil || !d.mailer.IsConfigured() {
		return
	}
	acct, err := d.store.GetAccount(ctx, n.UserID)
	if err != nil || acct.Email == "" {
		d.logger.Warn("no e-mail address for urgent notification", "user_id", n.UserID, "err", err)
		return
	}
	if err := d.mailer.Send(ctx, acct.Email, n.Title, n.Message); err != nil {
		d.logger.Error("send urgent notification", "user_id", n.UserID, "err", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
