package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMessageHeaders(t *testing.T) {
	c := &Config{Host: "smtp.example.com", Port: "587", From: "squad@example.com"}
	msg := string(c.Message("jane@example.com", "Injury\nupdate", "line one\nline two"))

	for _, want := range []string{
		"From: squad@example.com\r\n",
		"To: jane@example.com\r\n",
		"Subject: Injury update\r\n",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	c := &Config{}
	if err := c.Send(context.Background(), "jane@example.com", "s", "b"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
