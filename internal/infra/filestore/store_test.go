package filestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry", "datasets.json")
	store, err := New(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Missing file reads as empty.
	datasets, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(datasets) != 0 {
		t.Fatalf("expected empty registry, got %d", len(datasets))
	}

	in := []*domain.Dataset{{
		ID:       "ds1",
		Name:     "Population",
		Domain:   domain.DomainPopulation,
		Priority: 7,
		Status:   domain.StatusCompleted,
		AddedAt:  time.Now().Truncate(time.Second),
		StatusHistory: []domain.StatusChange{
			{From: domain.StatusPending, To: domain.StatusCompleted, Timestamp: time.Now()},
		},
	}}
	if err := store.Save(ctx, in); err != nil {
		t.Fatal(err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d datasets, want 1", len(out))
	}
	if out[0].ID != "ds1" || out[0].Status != domain.StatusCompleted || len(out[0].StatusHistory) != 1 {
		t.Errorf("round-tripped dataset = %+v", out[0])
	}
}

func TestStore_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
