package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"squad-backend/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	s := New(p, quietLogger(), nil)
	s.hashCost = bcrypt.MinCost
	return s, p
}

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := NewFilePersister(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := New(p, quietLogger(), nil)
	s.hashCost = bcrypt.MinCost
	return s, dir
}

func TestReadInitializesDefaultsOnce(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Players == nil || doc.PlayerUsers == nil || doc.Events == nil || doc.ChatRooms == nil ||
		doc.Notifications == nil || doc.ReportFolders == nil || doc.PlayerTags == nil || doc.DailyEventAnalytics == nil {
		t.Fatalf("default document has nil collections: %+v", doc)
	}
	if doc.WellnessSettings != models.DefaultWellnessSettings() {
		t.Errorf("wellness settings = %+v", doc.WellnessSettings)
	}
	if doc.Version != SchemaVersion {
		t.Errorf("version = %d", doc.Version)
	}
	if p.Saves() != 1 {
		t.Fatalf("first read should persist defaults once, saves = %d", p.Saves())
	}

	again, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Saves() != 1 {
		t.Errorf("second read must not write, saves = %d", p.Saves())
	}
	if !reflect.DeepEqual(doc, again) {
		t.Errorf("second read differs:\n%+v\n%+v", doc, again)
	}
}

func sampleDocument() *Document {
	ts := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	tag := "MD-1"
	related := "ev-1"
	doc := NewDocument()
	doc.Players = []models.Player{{ID: "p1", Name: "Jane Doe", Email: "jane@x.com", Position: "GK", Status: models.StatusRecovery, CreatedAt: ts, UpdatedAt: ts}}
	doc.PlayerUsers = []models.PlayerUser{{ID: "pu1", Email: "jane@x.com", Password: "hash", FirstName: "Jane", LastName: "Doe", Role: models.RolePlayer, IsActive: true, PlayerID: "p1"}}
	doc.Staff = []models.Staff{{ID: "s1", Name: "Sam Coach", Email: "sam@x.com", User: models.StaffUser{ID: "su1", Email: "sam@x.com", CreatedAt: ts}, StaffPermissions: models.StaffPermissions{CanEditEvents: true}}}
	doc.Teams = []models.Team{{ID: "t1", Name: "First", PlayerIDs: []string{"p1"}, StaffIDs: []string{"s1"}}}
	doc.Events = []models.Event{{ID: "ev-1", Title: "Training", Type: models.EventTraining, Date: "2025-04-02", StartTime: "09:00", EndTime: "10:00", MatchDayTag: &tag, Participants: []models.EventParticipant{{ID: "part-1", EventID: "ev-1", PlayerID: "p1"}}}}
	doc.ChatRooms = []models.ChatRoom{{ID: "room-1", Name: "Team", Type: "GROUP", CreatedBy: "su1", IsActive: true,
		Participants: []models.ChatParticipant{{ID: "m1", UserID: "pu1", IsActive: true}},
		Messages:     []models.ChatMessage{{ID: "msg-1", RoomID: "room-1", SenderID: "pu1", Content: "hi", CreatedAt: ts, DeletedAt: &ts}}}}
	doc.Notifications = []models.Notification{{ID: "n1", UserID: "pu1", Title: "t", Message: "m", Type: models.NotificationInfo, Priority: models.PriorityHigh, Category: models.CategoryEvent, RelatedID: &related, CreatedAt: ts}}
	doc.PlayerNotes = map[string][]models.PlayerNote{"p1": {{ID: "note-1", PlayerID: "p1", Content: "c", CreatedBy: "su1", CreatedAt: ts}}}
	doc.ReportFolders = FolderList{{ID: "f1", Name: "Root"}, {ID: "f2", Name: "Child", ParentID: "f1", VisibleToStaff: []models.FolderAccess{{ID: "a1", StaffID: "s1", CanView: true}}}}
	doc.Reports = []models.Report{{ID: "r1", Name: "R", FolderID: "f2", FileURL: "/uploads/r1.pdf", FileSize: 42}}
	doc.PlayerTags = map[string]string{"p1": "MD+1"}
	doc.PlayerAvatars = map[string]string{"p1": "/uploads/p1.png"}
	doc.DailyEventAnalytics = []models.DailyEventAnalytics{{ID: "a1", Date: "2025-04-02", EventType: models.EventTraining, Count: 1, TotalDuration: 60, AvgDuration: 60}}
	return doc
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	s, dir := newFileStore(t)
	ctx := context.Background()
	want := sampleDocument()

	if err := s.Write(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("round trip mismatch:\nwant %+v\n got %+v", want, got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestReadQuarantinesCorruptFile(t *testing.T) {
	s, dir := newFileStore(t)
	path := filepath.Join(dir, StateFileName)
	if err := os.WriteFile(path, []byte(`{"players": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Players) != 0 {
		t.Errorf("expected default document, got %d players", len(doc.Players))
	}
	moved, _ := filepath.Glob(path + ".corrupt-*")
	if len(moved) != 1 {
		t.Fatalf("expected one quarantined file, got %v", moved)
	}
	if b, _ := os.ReadFile(moved[0]); string(b) != `{"players": [` {
		t.Errorf("quarantined content = %q", b)
	}
	if _, err := Decode(mustRead(t, path)); err != nil {
		t.Errorf("replacement file is not a valid document: %v", err)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestWriteFailureIsIOError(t *testing.T) {
	s, p := newTestStore(t)
	p.FailSaves(errors.New("disk full"))

	err := s.Write(context.Background(), NewDocument())
	if !IsIOError(err) {
		t.Fatalf("want IOError, got %v", err)
	}

	// Read of an absent document must surface the failed default write too.
	if _, err := s.Read(context.Background()); !IsIOError(err) {
		t.Errorf("Read: want IOError, got %v", err)
	}
}

func TestWriteToMissingDirectoryIsIOError(t *testing.T) {
	s, dir := newFileStore(t)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(context.Background(), NewDocument()); !IsIOError(err) {
		t.Fatalf("want IOError, got %v", err)
	}
}

func TestWriteCompletesAfterCancel(t *testing.T) {
	s, p := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Write(ctx, sampleDocument()); err != nil {
		t.Fatalf("write with canceled context: %v", err)
	}
	if p.Saves() != 1 {
		t.Errorf("saves = %d", p.Saves())
	}
}

type unavailablePersister struct{ saves int }

func (u *unavailablePersister) Location() string { return "remote" }
func (u *unavailablePersister) Load(context.Context) ([]byte, error) {
	return nil, fmt.Errorf("%w: deadline exceeded", ErrUnavailable)
}
func (u *unavailablePersister) Save(context.Context, []byte) error {
	u.saves++
	return nil
}

func TestReadDoesNotOverwriteUnavailableBackend(t *testing.T) {
	p := &unavailablePersister{}
	s := New(p, quietLogger(), nil)
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if p.saves != 0 {
		t.Errorf("saves = %d, want 0", p.saves)
	}
}

// Two handlers that read the same document and write back their own change:
// the second write replaces the first. This is the accepted behavior of bare
// Read/Write cycles.
func TestReadWriteCyclesLoseConcurrentUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}

	a, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	a.Events = append(a.Events, models.Event{ID: "E1"})
	b.Events = append(b.Events, models.Event{ID: "E2"})
	if err := s.Write(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, b); err != nil {
		t.Fatal(err)
	}

	final, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(final.Events) == 0 {
		t.Fatal("at least one event must survive")
	}
	if len(final.Events) != 1 || final.Events[0].ID != "E2" {
		t.Errorf("last writer wins: got %+v, want only E2", final.Events)
	}
}

func TestUpdateKeepsConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(doc *Document) error {
				doc.Events = append(doc.Events, models.Event{ID: fmt.Sprintf("E%d", i)})
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Events) != n {
		t.Errorf("events = %d, want %d", len(doc.Events), n)
	}
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}
	before := p.Saves()

	if err := s.Update(ctx, func(*Document) error { return ErrNoChange }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := s.Update(ctx, func(*Document) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want callback error, got %v", err)
	}
	if p.Saves() != before {
		t.Errorf("saves = %d, want %d", p.Saves(), before)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := NewMemoryPersister()
	s := New(p, quietLogger(), m)
	ctx := context.Background()

	if _, err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}
	p.FailSaves(errors.New("nope"))
	_ = s.Write(ctx, NewDocument())

	if got := testutil.ToFloat64(m.reads.WithLabelValues("reinitialized")); got != 1 {
		t.Errorf("reinitialized reads = %v", got)
	}
	if got := testutil.ToFloat64(m.reads.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok reads = %v", got)
	}
	if got := testutil.ToFloat64(m.writes.WithLabelValues("error")); got != 1 {
		t.Errorf("failed writes = %v", got)
	}
}
