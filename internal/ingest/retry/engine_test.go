package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorKind
	}{
		{"Request timeout", KindTimeout},
		{"network timeout while reading", KindTimeout}, // timeout wins over network
		{"Connection refused", KindNetwork},
		{"host unreachable", KindNetwork},
		{"API rate limit hit", KindApi},
		{"Invalid JSON format", KindData},
		{"failed to parse payload", KindData},
		{"validation failed for record", KindValidation},
		{"S3 PutObject denied", KindStorage},
		{"bucket does not exist", KindStorage},
		{"something odd happened", KindUnknown},
	}

	for _, c := range cases {
		if got := Classify(errors.New(c.msg)); got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.msg, got, c.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	retryable := []ErrorKind{KindApi, KindNetwork, KindTimeout, KindStorage}
	terminal := []ErrorKind{KindData, KindValidation, KindUnknown}

	for _, k := range retryable {
		if !Retryable(k) {
			t.Errorf("expected %s to be retryable", k)
		}
	}
	for _, k := range terminal {
		if Retryable(k) {
			t.Errorf("expected %s to be terminal", k)
		}
	}
}

func TestDelay(t *testing.T) {
	e := NewEngine(Config{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}, nil)

	if got := e.Delay(0); got != time.Second {
		t.Errorf("Delay(0) = %v, want 1s", got)
	}
	if got := e.Delay(1); got != 2*time.Second {
		t.Errorf("Delay(1) = %v, want 2s", got)
	}
	if got := e.Delay(20); got != 10*time.Second {
		t.Errorf("Delay(20) = %v, want cap 10s", got)
	}
}

func TestExecute_NonRetryableReturnsImmediately(t *testing.T) {
	e := NewEngine(Config{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, nil)

	calls := 0
	err := e.Execute(context.Background(), "map record", func(ctx context.Context) error {
		calls++
		return errors.New("invalid json in payload")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for terminal error, got %d", calls)
	}
}

func TestExecute_RetriesTransientThenSucceeds(t *testing.T) {
	e := NewEngine(Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, nil)

	calls := 0
	err := e.Execute(context.Background(), "fetch page", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestExecute_ExhaustsRetries(t *testing.T) {
	e := NewEngine(Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, nil)

	calls := 0
	wantErr := errors.New("connection refused")
	err := e.Execute(context.Background(), "fetch page", func(ctx context.Context) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error back, got %v", err)
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestSummary(t *testing.T) {
	e := NewEngine(Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, nil)

	for i := 0; i < 15; i++ {
		_ = e.Execute(context.Background(), "op", func(ctx context.Context) error {
			return fmt.Errorf("invalid record %d", i)
		})
	}

	s := e.Summary()
	if s.TotalErrors != 15 {
		t.Errorf("TotalErrors = %d, want 15", s.TotalErrors)
	}
	if s.CountsByKind[KindData] != 15 {
		t.Errorf("CountsByKind[data] = %d, want 15", s.CountsByKind[KindData])
	}
	if len(s.Recent) != 10 {
		t.Fatalf("Recent length = %d, want 10", len(s.Recent))
	}
	if s.Recent[0].Message != "invalid record 14" {
		t.Errorf("expected most recent first, got %q", s.Recent[0].Message)
	}

	e.Clear()
	if s := e.Summary(); s.TotalErrors != 0 {
		t.Errorf("expected empty history after Clear, got %d", s.TotalErrors)
	}
}
