package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/datalakehq/statingest/internal/core/domain"
)

type mockFilteredRemote struct {
	mu       sync.Mutex
	byValue  map[string][]domain.RawRecord
	failures map[string]bool
	calls    []string
}

func (m *mockFilteredRemote) ProbeTotal(ctx context.Context, datasetID string) (int, error) {
	return 0, errors.New("not used")
}

func (m *mockFilteredRemote) FetchPage(ctx context.Context, datasetID string, offset, limit int) ([]domain.RawRecord, error) {
	return nil, errors.New("not used")
}

func (m *mockFilteredRemote) FetchFiltered(ctx context.Context, datasetID string, filters map[string][]string) ([]domain.RawRecord, error) {
	value := filters["area"][0]
	m.mu.Lock()
	m.calls = append(m.calls, value)
	m.mu.Unlock()
	if m.failures[value] {
		return nil, errors.New("invalid response format")
	}
	return m.byValue[value], nil
}

func TestFetchByCategory_DeduplicatesAcrossSubFetches(t *testing.T) {
	// The 2020/"03" observation appears in both sub-fetches with different
	// values; identity ignores the value field, so only the first survives.
	remote := &mockFilteredRemote{
		byValue: map[string][]domain.RawRecord{
			"01": {
				{"area": "01", "year": 2020, "value": 10.0},
				{"area": "03", "year": 2020, "value": 1.0},
			},
			"03": {
				{"area": "03", "year": 2020, "value": 2.0},
				{"area": "03", "year": 2021, "value": 3.0},
			},
		},
	}
	f := New(remote, testEngine(1), nil)

	result, err := f.FetchByCategory(context.Background(), "ds1", "area", []string{"01", "03"}, false, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("records = %d, want 3 after dedupe", len(result.Records))
	}
	if result.Records[1]["value"] != 1.0 {
		t.Errorf("expected first occurrence kept, got value=%v", result.Records[1]["value"])
	}
}

func TestFetchByCategory_FailedCategoryIsolated(t *testing.T) {
	remote := &mockFilteredRemote{
		byValue: map[string][]domain.RawRecord{
			"a": {{"area": "a", "value": 1.0}},
			"c": {{"area": "c", "value": 2.0}},
		},
		failures: map[string]bool{"b": true},
	}
	f := New(remote, testEngine(2), nil)

	result, err := f.FetchByCategory(context.Background(), "ds1", "area", []string{"a", "b", "c"}, true, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", result.PagesFailed)
	}
	if len(result.Records) != 2 {
		t.Errorf("records = %d, want 2", len(result.Records))
	}
}

func TestFetchByCategory_NoValues(t *testing.T) {
	f := New(&mockFilteredRemote{}, testEngine(1), nil)
	if _, err := f.FetchByCategory(context.Background(), "ds1", "area", nil, false, 1); err == nil {
		t.Fatal("expected error for empty category values")
	}
}

func TestPickCategoryDimension(t *testing.T) {
	dims := map[string][]string{
		"sex":  {"m", "f"},
		"time": {"2020", "2021"},
		"area": {"01", "02"},
	}

	name, values, ok := PickCategoryDimension(dims)
	if !ok || name != "area" || len(values) != 2 {
		t.Errorf("got %s/%v/%v, want area preferred", name, values, ok)
	}

	delete(dims, "area")
	name, _, _ = PickCategoryDimension(dims)
	if name != "time" {
		t.Errorf("got %s, want time preferred after area", name)
	}

	delete(dims, "time")
	name, _, _ = PickCategoryDimension(dims)
	if name != "sex" {
		t.Errorf("got %s, want first remaining dimension", name)
	}

	if _, _, ok := PickCategoryDimension(nil); ok {
		t.Error("expected no dimension for empty input")
	}
}
