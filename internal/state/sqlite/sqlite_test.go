package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"squad-backend/internal/models"
	"squad-backend/internal/state"
)

func openTest(t *testing.T) *Persister {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "db", "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLoadEmptyIsNotExist(t *testing.T) {
	p := openTest(t)
	if _, err := p.Load(context.Background()); !errors.Is(err, state.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestStateRoundTripThroughSQLite(t *testing.T) {
	p := openTest(t)
	s := state.New(p, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ctx := context.Background()

	want := state.NewDocument()
	want.Players = []models.Player{{ID: "p1", Name: "Jane Doe", Email: "jane@x.com"}}
	want.PlayerTags["p1"] = "MD+1"
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

	var buckets int
	if err := p.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&buckets); err != nil {
		t.Fatal(err)
	}
	if buckets < 20 {
		t.Errorf("buckets = %d, want one per collection", buckets)
	}
}

func TestCorruptBucketIsQuarantined(t *testing.T) {
	p := openTest(t)
	ctx := context.Background()
	if _, err := p.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('players', '{broken')`); err != nil {
		t.Fatal(err)
	}
	s := state.New(p, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Players) != 0 {
		t.Errorf("players = %+v", doc.Players)
	}
	var n int
	if err := p.DB().QueryRow(`SELECT COUNT(*) FROM state_corrupt_1`).Scan(&n); err != nil {
		t.Fatalf("quarantine table missing: %v", err)
	}
	if n != 1 {
		t.Errorf("quarantined rows = %d", n)
	}
}
