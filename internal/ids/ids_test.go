package ids

import (
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	id := New(Player)
	if !HasPrefix(id, Player) {
		t.Fatalf("expected prefix %q, got %q", Player, id)
	}
	if len(id) != len(Player)+1+36 {
		t.Errorf("unexpected length %d for %q", len(id), id)
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := New(Event)
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestTimeRoundTrip(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := New(Notification)
	ts, ok := Time(id)
	if !ok {
		t.Fatalf("expected embedded time in %q", id)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("embedded time %v out of range", ts)
	}
}

func TestTimeRejectsLegacyIDs(t *testing.T) {
	for _, id := range []string{"p1", "local-player-1712345678901", "local-player-user-1712345678901-abc123def"} {
		if _, ok := Time(id); ok {
			t.Errorf("Time(%q): expected ok=false", id)
		}
	}
}

func TestApproximateOrdering(t *testing.T) {
	a := New(ChatMessage)
	time.Sleep(2 * time.Millisecond)
	b := New(ChatMessage)
	if !(a < b) {
		t.Errorf("expected %q < %q", a, b)
	}
}
