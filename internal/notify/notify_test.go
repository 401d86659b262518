package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"squad-backend/internal/models"
)

type fakeStore struct {
	users    []string
	accounts map[string]models.Account
	created  []models.Notification
}

func (f *fakeStore) CreateNotifications(_ context.Context, ns []models.Notification) ([]models.Notification, error) {
	out := make([]models.Notification, len(ns))
	for i, n := range ns {
		n.ID = fmt.Sprintf("notif-%d", len(f.created)+i+1)
		n.ApplyDefaults()
		out[i] = n
	}
	f.created = append(f.created, out...)
	return out, nil
}

func (f *fakeStore) ListUserIDs(context.Context) ([]string, error) { return f.users, nil }

func (f *fakeStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &a, nil
}

type sent struct{ to, subject string }

type fakeMailer struct {
	configured bool
	sent       []sent
}

func (m *fakeMailer) IsConfigured() bool { return m.configured }

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.sent = append(m.sent, sent{to, subject})
	return nil
}

func newDispatcher(mailer *fakeMailer) (*Dispatcher, *fakeStore, *Broker) {
	s := &fakeStore{
		users: []string{"u1", "u2", "u3"},
		accounts: map[string]models.Account{
			"u1": {UserID: "u1", Email: "u1@example.com"},
			"u2": {UserID: "u2", Email: "u2@example.com"},
		},
	}
	b := NewBroker()
	var m Mailer
	if mailer != nil {
		m = mailer
	}
	return NewDispatcher(s, b, m, slog.New(slog.NewTextHandler(io.Discard, nil))), s, b
}

func TestNotifyExplicitRecipients(t *testing.T) {
	d, s, b := newDispatcher(nil)
	ch := b.Subscribe("u2")
	defer b.Unsubscribe("u2", ch)

	got, err := d.Notify(context.Background(), Draft{UserIDs: []string{"u2", "u2", ""}, Title: "Training moved", Message: "now 10:00"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(s.created) != 1 || got[0].UserID != "u2" {
		t.Fatalf("created = %+v", got)
	}
	if got[0].Priority != models.PriorityMedium || got[0].Category != models.CategoryGeneral {
		t.Errorf("defaults not applied: %+v", got[0])
	}

	select {
	case data := <-ch:
		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			t.Fatal(err)
		}
		if n.ID != got[0].ID || n.Title != "Training moved" {
			t.Errorf("published = %+v", n)
		}
	default:
		t.Fatal("nothing published")
	}
}

func TestNotifyBroadcastsWhenNoRecipients(t *testing.T) {
	d, s, _ := newDispatcher(nil)
	got, err := d.Notify(context.Background(), Draft{Title: "Season opener"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || len(s.created) != 3 {
		t.Fatalf("created %d notifications, want 3", len(got))
	}
}

func TestNotifyMailsUrgentOnly(t *testing.T) {
	m := &fakeMailer{configured: true}
	d, _, _ := newDispatcher(m)
	ctx := context.Background()

	if _, err := d.Notify(ctx, Draft{UserIDs: []string{"u1"}, Title: "fyi", Priority: models.PriorityHigh}); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 0 {
		t.Fatalf("non-urgent mailed: %+v", m.sent)
	}
	// u3 has no account; it still gets the notification.
	got, err := d.Notify(ctx, Draft{UserIDs: []string{"u1", "u3"}, Title: "Injury", Priority: models.PriorityUrgent})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("created %d, want 2", len(got))
	}
	if len(m.sent) != 1 || m.sent[0] != (sent{"u1@example.com", "Injury"}) {
		t.Errorf("sent = %+v", m.sent)
	}

	m.configured = false
	if _, err := d.Notify(ctx, Draft{UserIDs: []string{"u2"}, Priority: models.PriorityUrgent}); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 {
		t.Errorf("mailed without SMTP configured")
	}
}

func TestBrokerDropsForSlowSubscribers(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("u1")
	for i := 0; i < 20; i++ {
		b.Publish("u1", []byte("x"))
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d, want %d", len(ch), cap(ch))
	}
	b.Publish("nobody", []byte("x"))

	if b.Subscribers("u1") != 1 {
		t.Fatalf("subscribers = %d", b.Subscribers("u1"))
	}
	b.Unsubscribe("u1", ch)
	if b.Subscribers("u1") != 0 {
		t.Errorf("subscribers after unsubscribe = %d", b.Subscribers("u1"))
	}
}
