package retry

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datalakehq/statingest/internal/ingest/metrics"
)

// Config defines backoff behavior.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   60 * time.Second,
}

// ErrorRecord captures one classified failure for post-hoc diagnosis.
type ErrorRecord struct {
	ID        string    `json:"id"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
	Retryable bool      `json:"retryable"`
}

// Summary is a point-in-time view of the engine's error history. Recent
// holds at most the last 10 records, most recent first.
type Summary struct {
	TotalErrors  int               `json:"total_errors"`
	CountsByKind map[ErrorKind]int `json:"counts_by_kind"`
	Recent       []ErrorRecord     `json:"recent"`
}

const recentLimit = 10

// Engine is the sole retry boundary of the pipeline. Transient failures are
// retried with exponential backoff; everything else surfaces immediately.
// Every failure is recorded in an in-memory history.
type Engine struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	history []ErrorRecord
}

// NewEngine creates a retry engine. Zero config fields fall back to defaults.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultConfig.MaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultConfig.BaseDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultConfig.MaxDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log}
}

// Delay computes the backoff before retry number attempt (zero-based),
// base*2^attempt capped at MaxDelay.
func (e *Engine) Delay(attempt int) time.Duration {
	d := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(e.cfg.MaxDelay) {
		d = float64(e.cfg.MaxDelay)
	}
	return time.Duration(d)
}

// Execute runs fn, retrying transient failures up to MaxRetries times.
// opContext labels the operation in the error history.
func (e *Engine) Execute(ctx context.Context, opContext string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := Classify(err)
		retryable := Retryable(kind)
		e.record(kind, err, opContext, retryable)

		if !retryable {
			return err
		}
		if attempt == e.cfg.MaxRetries {
			break
		}

		delay := e.Delay(attempt)
		e.log.Debug("retrying after transient failure",
			"op", opContext, "kind", kind, "attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (e *Engine) record(kind ErrorKind, err error, opContext string, retryable bool) {
	metrics.RetryErrors.WithLabelValues(string(kind)).Inc()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, ErrorRecord{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   err.Error(),
		Context:   opContext,
		Timestamp: time.Now(),
		Retryable: retryable,
	})
}

// Summary reports totals, per-kind counts and the most recent failures.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{
		TotalErrors:  len(e.history),
		CountsByKind: make(map[ErrorKind]int),
	}
	for _, r := range e.history {
		s.CountsByKind[r.Kind]++
	}

	n := len(e.history)
	limit := recentLimit
	if n < limit {
		limit = n
	}
	for i := 0; i < limit; i++ {
		s.Recent = append(s.Recent, e.history[n-1-i])
	}
	return s
}

// Clear drops the error history.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}
