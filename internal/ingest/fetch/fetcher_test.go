package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest"
	"github.com/datalakehq/statingest/internal/ingest/retry"
)

// =============================================================================
// Mocks
// =============================================================================

type mockRemote struct {
	mu          sync.Mutex
	total       int
	failOffsets map[int]bool // offsets that always fail
	flakyOnce   map[int]bool // offsets that fail exactly once
	calls       int

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (m *mockRemote) ProbeTotal(ctx context.Context, datasetID string) (int, error) {
	return m.total, nil
}

func (m *mockRemote) FetchPage(ctx context.Context, datasetID string, offset, limit int) ([]domain.RawRecord, error) {
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		max := m.maxInFlight.Load()
		if cur <= max || m.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	m.mu.Lock()
	m.calls++
	if m.failOffsets[offset] {
		m.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	if m.flakyOnce[offset] {
		delete(m.flakyOnce, offset)
		m.mu.Unlock()
		return nil, errors.New("request timeout")
	}
	m.mu.Unlock()

	records := make([]domain.RawRecord, limit)
	for i := range records {
		records[i] = domain.RawRecord{"row": offset + i, "value": 1.0}
	}
	return records, nil
}

func (m *mockRemote) FetchFiltered(ctx context.Context, datasetID string, filters map[string][]string) ([]domain.RawRecord, error) {
	return nil, errors.New("not used")
}

func testEngine(maxRetries int) *retry.Engine {
	return retry.NewEngine(retry.Config{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}, nil)
}

// =============================================================================
// FetchParallel
// =============================================================================

func TestFetchParallel_AssemblesRecordsInPageOrder(t *testing.T) {
	remote := &mockRemote{total: 95}
	f := New(remote, testEngine(1), nil)

	result, err := f.FetchParallel(context.Background(), "ds1", Config{
		PageSize: 10, MaxConcurrency: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesAttempted != 10 || result.PagesFailed != 0 {
		t.Fatalf("pages attempted/failed = %d/%d", result.PagesAttempted, result.PagesFailed)
	}
	if len(result.Records) != 95 {
		t.Fatalf("records = %d, want 95", len(result.Records))
	}
	for i, r := range result.Records {
		if r["row"] != i {
			t.Fatalf("record %d out of order: row=%v", i, r["row"])
		}
	}
}

func TestFetchParallel_NoRecords(t *testing.T) {
	f := New(&mockRemote{total: 0}, testEngine(1), nil)

	_, err := f.FetchParallel(context.Background(), "ds1", Config{PageSize: 10})
	if !errors.Is(err, ingest.ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestFetchParallel_OnePermanentlyFailingPageIsIsolated(t *testing.T) {
	remote := &mockRemote{
		total:       100,
		failOffsets: map[int]bool{30: true},
	}
	f := New(remote, testEngine(2), nil)

	result, err := f.FetchParallel(context.Background(), "ds1", Config{
		PageSize: 10, MaxConcurrency: 3,
	})
	if err != nil {
		t.Fatalf("partial failure must not fail the fetch: %v", err)
	}
	if result.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", result.PagesFailed)
	}
	if len(result.Records) != 90 {
		t.Errorf("records = %d, want 90", len(result.Records))
	}
}

func TestFetchParallel_TransientPageFailureRetried(t *testing.T) {
	remote := &mockRemote{
		total:     30,
		flakyOnce: map[int]bool{10: true},
	}
	f := New(remote, testEngine(3), nil)

	result, err := f.FetchParallel(context.Background(), "ds1", Config{
		PageSize: 10, MaxConcurrency: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesFailed != 0 {
		t.Errorf("PagesFailed = %d, want 0 after retry", result.PagesFailed)
	}
	if len(result.Records) != 30 {
		t.Errorf("records = %d, want 30", len(result.Records))
	}
}

func TestFetchParallel_MaxRecordsCap(t *testing.T) {
	remote := &mockRemote{total: 1000}
	f := New(remote, testEngine(1), nil)

	result, err := f.FetchParallel(context.Background(), "ds1", Config{
		PageSize: 10, MaxRecords: 25, MaxConcurrency: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 25 {
		t.Errorf("records = %d, want capped 25", len(result.Records))
	}
	if result.PagesAttempted != 3 {
		t.Errorf("PagesAttempted = %d, want 3", result.PagesAttempted)
	}
}

func TestFetchParallel_ConcurrencyBounded(t *testing.T) {
	remote := &mockRemote{total: 200}
	f := New(remote, testEngine(1), nil)

	_, err := f.FetchParallel(context.Background(), "ds1", Config{
		PageSize: 10, MaxConcurrency: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := remote.maxInFlight.Load(); got > 3 {
		t.Errorf("observed %d concurrent fetches, want <= 3", got)
	}
}
