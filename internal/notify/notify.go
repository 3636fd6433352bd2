// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify renders the paper digest and delivers it by SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// ErrNotConfigured is returned when sender or recipient is missing. Nothing
// is sent in that case.
var ErrNotConfigured = errors.New("email sender or recipient not configured")

// defaultProbeTimeout bounds the reachability check.
const defaultProbeTimeout = 10 * time.Second

// Message is one outgoing email. It is delivered as multipart/alternative
// with Text as the plain part and HTML as the preferred part.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers a Message. SMTPTransport is the production
// implementation; tests substitute a recorder.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders and sends digests, empty notices, and test messages.
type Mailer struct {
	Config    types.EmailConfig
	Templates types.EmailTemplates
	Transport Transport

	// Log receives one line per send attempt.
	Log io.Writer
}

// NewMailer builds a Mailer that delivers over SMTP.
func NewMailer(cfg types.EmailConfig, tmpl types.EmailTemplates, log io.Writer) *Mailer {
	return &Mailer{
		Config:    cfg,
		Templates: tmpl,
		Transport: NewSMTPTransport(cfg),
		Log:       log,
	}
}

// Send delivers the digest for records dated date. An empty list sends the
// no-results notice instead.
func (m *Mailer) Send(ctx context.Context, records []*types.PaperRecord, date string) error {
	if len(records) == 0 {
		return m.SendEmpty(ctx, date)
	}
	if err := m.checkAddresses(); err != nil {
		return err
	}

	html, err := RenderDigest(records, date, m.Templates)
	if err != nil {
		return err
	}
	text, err := RenderDigestText(records, date, m.Templates)
	if err != nil {
		return err
	}
	return m.deliver(ctx, FormatSubject(m.Templates.Subject, date, len(records)), html, text)
}

// SendEmpty delivers the no-results notice for date.
func (m *Mailer) SendEmpty(ctx context.Context, date string) error {
	if err := m.checkAddresses(); err != nil {
		return err
	}
	html, err := RenderEmpty(date)
	if err != nil {
		return err
	}
	return m.deliver(ctx, FormatSubject(m.Templates.Subject, date, 0), html, RenderEmptyText(date))
}

// SendTest delivers the fixed configuration check message.
func (m *Mailer) SendTest(ctx context.Context) error {
	if err := m.checkAddresses(); err != nil {
		return err
	}
	return m.deliver(ctx, TestSubject, testBody, testText)
}

// Probe opens and closes a TCP connection to the SMTP host. It performs no
// SMTP conversation.
func (m *Mailer) Probe(ctx context.Context) error {
	timeout := m.Config.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	addr := net.JoinHostPort(m.Config.SMTPServer, strconv.Itoa(m.Config.SMTPPort))

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn.Close()
}

func (m *Mailer) checkAddresses() error {
	if !m.Config.HasAddresses() {
		fmt.Fprintln(m.logger(), "email not configured, skipping send")
		return ErrNotConfigured
	}
	return nil
}

func (m *Mailer) deliver(ctx context.Context, subject, html, text string) error {
	err := m.Transport.Send(ctx, Message{
		From:    m.Config.SenderEmail,
		To:      m.Config.RecipientEmail,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		fmt.Fprintf(m.logger(), "failed to send %q: %v\n", subject, err)
		return fmt.Errorf("sending %q: %w", subject, err)
	}
	fmt.Fprintf(m.logger(), "sent: %s\n", subject)
	return nil
}

func (m *Mailer) logger() io.Writer {
	if m.Log == nil {
		return io.Discard
	}
	return m.Log
}
