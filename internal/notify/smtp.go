// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// SMTPTransport sends over SMTP with mandatory STARTTLS. PLAIN auth is used
// when a password is configured; the sender address doubles as the login.
type SMTPTransport struct {
	cfg types.EmailConfig
}

// NewSMTPTransport returns a transport for cfg.
func NewSMTPTransport(cfg types.EmailConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send dials the server, delivers msg, and closes the connection.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}
	client, err := t.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("SMTP delivery via %s:%d: %w", t.cfg.SMTPServer, t.cfg.SMTPPort, err)
	}
	return nil
}

// buildMessage assembles a multipart/alternative message: the plain part
// first, the HTML part last as the preferred rendering.
func buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

func (t *SMTPTransport) client() (*mail.Client, error) {
	opts := append([]mail.Option{
		mail.WithPort(t.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}, t.authOptions()...)

	client, err := mail.NewClient(t.cfg.SMTPServer, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return client, nil
}

// authOptions returns the PLAIN auth settings, or nothing when no password
// is configured.
func (t *SMTPTransport) authOptions() []mail.Option {
	if t.cfg.SenderPassword == "" {
		return nil
	}
	return []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.cfg.SenderEmail),
		mail.WithPassword(t.cfg.SenderPassword),
	}
}
