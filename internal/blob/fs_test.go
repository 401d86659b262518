package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFilesystem(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	info, err := s.Put(ctx, "reports/staff/a.pdf", strings.NewReader("hello"), PutOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 5 || info.ETag == "" || info.URL != "/uploads/reports/staff/a.pdf" {
		t.Fatalf("info = %+v", info)
	}
	if _, err := s.Put(ctx, "reports/staff/a.pdf", strings.NewReader("again"), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("second put: err = %v", err)
	}

	got, rc, err := s.Get(ctx, "reports/staff/a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "hello" || got.ContentType != "application/pdf" || got.ETag != info.ETag {
		t.Fatalf("get = %+v %q", got, body)
	}

	existed, err := s.Delete(ctx, "reports/staff/a.pdf")
	if err != nil || !existed {
		t.Fatalf("delete = %v, %v", existed, err)
	}
	existed, err = s.Delete(ctx, "reports/staff/a.pdf")
	if err != nil || existed {
		t.Fatalf("second delete = %v, %v", existed, err)
	}
	if _, _, err := s.Get(ctx, "reports/staff/a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v", err)
	}
}

func TestFilesystemRejectsEscapingKeys(t *testing.T) {
	s, err := NewFilesystem(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "  ", "../etc/passwd", "a/../../b", "/abs"} {
		if _, err := s.Put(context.Background(), key, bytes.NewReader(nil), PutOptions{}); err == nil {
			t.Errorf("Put(%q) succeeded", key)
		}
	}
}

func TestKey(t *testing.T) {
	k := Key("media/player-1", `C:\clips\goal 1 (final).mp4`)
	if !strings.HasPrefix(k, "media/player-1/blob-") {
		t.Fatalf("key = %q", k)
	}
	if !strings.HasSuffix(k, "-goal_1__final_.mp4") {
		t.Errorf("key = %q", k)
	}
	if Key("x", "..") == Key("x", "..") {
		t.Error("keys are not unique")
	}
	if strings.Contains(Key("x", ".."), "..") {
		t.Error("key keeps a traversal segment")
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		base, url, want string
		ok              bool
	}{
		{"/uploads", "/uploads/reports/a.pdf", "reports/a.pdf", true},
		{"/uploads/", "/uploads/reports/a.pdf", "reports/a.pdf", true},
		{"https://cdn.example.com", "https://cdn.example.com/m/v.mp4", "m/v.mp4", true},
		{"/uploads", "https://elsewhere.example.com/a.pdf", "", false},
		{"/uploads", "/uploads/", "", false},
	}
	for _, tt := range tests {
		got, ok := KeyFromURL(tt.base, tt.url)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KeyFromURL(%q, %q) = %q, %v", tt.base, tt.url, got, ok)
		}
	}
}
