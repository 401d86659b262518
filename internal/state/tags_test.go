package state

import (
	"context"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestSetMatchDayTagsBulkWritesOnce(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}
	saves := p.Saves()

	if err := s.SetMatchDayTagsBulk(ctx, []string{"p1", "p2", "p3"}, strPtr("MD+1")); err != nil {
		t.Fatal(err)
	}
	if got := p.Saves() - saves; got != 1 {
		t.Errorf("bulk update wrote %d times, want 1", got)
	}
	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if tag := doc.Tag(id); tag == nil || *tag != "MD+1" {
			t.Errorf("%s tag = %v", id, tag)
		}
	}
}

func TestSetMatchDayTagsBulkEmptyListIsNoop(t *testing.T) {
	s, p := newTestStore(t)
	if err := s.SetMatchDayTagsBulk(context.Background(), nil, strPtr("MD")); err != nil {
		t.Fatal(err)
	}
	if p.Loads() != 0 || p.Saves() != 0 {
		t.Errorf("loads = %d, saves = %d; want 0, 0", p.Loads(), p.Saves())
	}
}

func TestClearingTagRemovesEntry(t *testing.T) {
	for name, clear := range map[string]*string{"nil": nil, "empty": strPtr("")} {
		t.Run(name, func(t *testing.T) {
			s, p := newTestStore(t)
			ctx := context.Background()
			if err := s.SetMatchDayTag(ctx, "p1", strPtr("MD-2")); err != nil {
				t.Fatal(err)
			}
			if err := s.SetMatchDayTag(ctx, "p1", clear); err != nil {
				t.Fatal(err)
			}

			tag, err := s.MatchDayTag(ctx, "p1")
			if err != nil {
				t.Fatal(err)
			}
			if tag != nil {
				t.Errorf("tag = %q, want nil", *tag)
			}
			raw, _ := p.Load(ctx)
			if strings.Contains(string(raw), `"p1"`) {
				t.Errorf("playerTags still holds an entry for p1:\n%s", raw)
			}
		})
	}
}

func TestSetPlayerAvatar(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.SetPlayerAvatar(ctx, "p1", strPtr("/uploads/p1.png")); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a := doc.Avatar("p1"); a == nil || *a != "/uploads/p1.png" {
		t.Errorf("avatar = %v", a)
	}
	if err := s.SetPlayerAvatar(ctx, "p1", nil); err != nil {
		t.Fatal(err)
	}
	doc, _ = s.Read(ctx)
	if a := doc.Avatar("p1"); a != nil {
		t.Errorf("avatar = %q, want nil", *a)
	}
}
