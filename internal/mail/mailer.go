// Package mail delivers the composed digest over authenticated SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"licitahunter/internal/retry"
)

// Message is one outbound digest email.
type Message struct {
	To             string
	Subject        string
	Text           string
	HTML           string
	AttachmentName string
	Attachment     []byte
}

// DeliveryError means the transport gave up after its retry budget. It is
// the loud failure of the pipeline: the digest never reached the recipient.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("digest delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Options configures the SMTP transport. Credential is only handed to the
// SMTP client and must never appear in logs or error text.
type Options struct {
	Host       string
	Port       int
	Sender     string
	Credential string
}

type Mailer struct {
	opts   Options
	policy retry.Policy

	// transport performs one delivery attempt; tests swap it out.
	transport func(ctx context.Context, msg Message) error
}

func New(opts Options) *Mailer {
	if opts.Host == "" {
		opts.Host = "smtp.gmail.com"
	}
	if opts.Port == 0 {
		opts.Port = 465
	}
	m := &Mailer{
		opts: opts,
		policy: retry.Policy{
			MaxAttempts:  2,
			InitialDelay: 2 * time.Second,
			Multiplier:   2,
			Retryable:    transient,
		},
	}
	m.transport = m.smtpSend
	return m
}

// Send delivers msg, retrying once on a transient transport failure. The
// run makes at most one Send call, so a duplicate email can only come from
// a retry whose first attempt failed before the server accepted the message.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	err := retry.Do(ctx, m.policy, func(ctx context.Context) error {
		return m.transport(ctx, msg)
	})
	if err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// transient: temporary SMTP codes and dial/timeout errors are retried;
// permanent rejects are not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *gomail.SendError
	if errors.As(err, &se) {
		return se.IsTemp()
	}
	return true
}

func (m *Mailer) smtpSend(ctx context.Context, t Message) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.opts.Sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(t.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(t.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, t.Text)
	if t.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, t.HTML)
	}
	if len(t.Attachment) > 0 {
		if err := msg.AttachReader(t.AttachmentName, bytes.NewReader(t.Attachment)); err != nil {
			return fmt.Errorf("attach failed: %w", err)
		}
	}

	opts := []gomail.Option{
		gomail.WithPort(m.opts.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.opts.Sender),
		gomail.WithPassword(m.opts.Credential),
		gomail.WithTimeout(30 * time.Second),
	}
	if m.opts.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}

	client, err := gomail.NewClient(m.opts.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client setup failed: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
