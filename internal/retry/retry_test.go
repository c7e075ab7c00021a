package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	err := Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	attempts := 0
	wantErr := errors.New("still failing")
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	err := Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do returned %v, want %v", err, wantErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Retryable:    func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Do returned %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

type hintedErr struct {
	after time.Duration
}

func (e *hintedErr) Error() string                      { return "rate limited" }
func (e *hintedErr) RetryAfter() (time.Duration, bool) { return e.after, e.after > 0 }

func TestDoHonorsRetryAfterHint(t *testing.T) {
	attempts := 0
	p := Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 2}

	start := time.Now()
	err := Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return &hintedErr{after: 30 * time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, want at least the 30ms hint", elapsed)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, InitialDelay: time.Hour}

	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, p, func(ctx context.Context) error {
		attempts++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do returned %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (cancelled during backoff)", attempts)
	}
}

func TestPolicyDelaySchedule(t *testing.T) {
	p := Policy{InitialDelay: 500 * time.Millisecond, MaxDelay: 3 * time.Second, Multiplier: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second}, // capped
		{4, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := p.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
