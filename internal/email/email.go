package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var ErrNotConfigured = errors.New("email not configured")

type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (c *Config) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Message renders a plain-text RFC 5322 message.
func (c *Config) Message(to, subject, body string) []byte {
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		c.From, to, subject, strings.ReplaceAll(body, "\n", "\r\n"),
	))
}

// Send delivers one message. smtp.SendMail does not take a context, so ctx
// is only checked before dialing.
func (c *Config) Send(ctx context.Context, to, subject, body string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if c.User != "" {
		auth = smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	addr := c.Host + ":" + c.Port
	if err := smtp.SendMail(addr, auth, c.From, []string{to}, c.Message(to, subject, body)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
