package mail

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMailer(transport func(ctx context.Context, msg Message) error) *Mailer {
	m := New(Options{Sender: "sender@example.com", Credential: "secret"})
	m.policy.InitialDelay = time.Millisecond
	m.transport = transport
	return m
}

func digestMsg() Message {
	return Message{
		To:      "dest@example.com",
		Subject: "Licitações PNCP - 2025-01-08 - 1 nova(s)",
		Text:    "corpo",
	}
}

func TestSendSucceeds(t *testing.T) {
	var attempts int
	m := newTestMailer(func(ctx context.Context, msg Message) error {
		attempts++
		return nil
	})

	if err := m.Send(context.Background(), digestMsg()); err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSendRetriesTransientFailure(t *testing.T) {
	var attempts int
	m := newTestMailer(func(ctx context.Context, msg Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	if err := m.Send(context.Background(), digestMsg()); err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (one retry)", attempts)
	}
}

func TestSendExhaustsRetryBudget(t *testing.T) {
	var attempts int
	m := newTestMailer(func(ctx context.Context, msg Message) error {
		attempts++
		return errors.New("dial tcp: connection refused")
	})

	err := m.Send(context.Background(), digestMsg())
	if err == nil {
		t.Fatal("Send returned nil, want DeliveryError")
	}
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want a DeliveryError", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (budget of two)", attempts)
	}
}

func TestSendDoesNotRetryAfterCancellation(t *testing.T) {
	var attempts int
	m := newTestMailer(func(ctx context.Context, msg Message) error {
		attempts++
		return context.Canceled
	})

	err := m.Send(context.Background(), digestMsg())
	if err == nil {
		t.Fatal("Send returned nil, want DeliveryError")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry after cancellation)", attempts)
	}
}

func TestDeliveryErrorUnwraps(t *testing.T) {
	cause := errors.New("554 rejected")
	m := newTestMailer(func(ctx context.Context, msg Message) error {
		return cause
	})

	err := m.Send(context.Background(), digestMsg())
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap the transport cause", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(Options{Sender: "sender@example.com", Credential: "secret"})
	if m.opts.Host != "smtp.gmail.com" {
		t.Errorf("Host = %q, want the gmail default", m.opts.Host)
	}
	if m.opts.Port != 465 {
		t.Errorf("Port = %d, want 465", m.opts.Port)
	}
}
