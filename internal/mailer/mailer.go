// Package mailer sends transactional email such as team invitations.
package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single outgoing email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var (
	mu      sync.RWMutex
	current Mailer = Log{}
)

// SetDefault installs the mailer used by the handlers.
func SetDefault(m Mailer) {
	mu.Lock()
	defer mu.Unlock()
	current = m
}

func Default() Mailer {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// New returns a SendGrid mailer when apiKey is set and a log-only mailer
// otherwise.
func New(apiKey, fromEmail string) Mailer {
	if apiKey == "" {
		return Log{}
	}
	return NewSendGrid(apiKey, "ProjectHub", fromEmail)
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	apiKey  string
	from    *mail.Email
	baseURL string
}

func NewSendGrid(apiKey, fromName, fromEmail string) *SendGrid {
	return &SendGrid{apiKey: apiKey, from: mail.NewEmail(fromName, fromEmail)}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)

	// the client keeps the request body on itself, so one per send
	client := sendgrid.NewSendClient(s.apiKey)
	if s.baseURL != "" {
		client.BaseURL = s.baseURL
	}
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	log.Debug().Str("to", msg.ToEmail).Int("status", resp.StatusCode).Msg("email sent")
	return nil
}

// Log writes messages to the application log instead of sending them.
type Log struct{}

func (Log) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("email not sent, no mail provider configured")
	return nil
}
