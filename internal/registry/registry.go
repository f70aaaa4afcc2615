// Package registry maintains the persisted inventory of datasets, their
// statuses and their audit history.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// Registry is the authoritative dataset inventory. It is owned by a single
// orchestrator instance; callers in a multi-worker deployment must
// serialize access externally.
type Registry struct {
	store    Store
	log      *slog.Logger
	datasets []*domain.Dataset
	byID     map[string]*domain.Dataset
	nextSeq  int64
}

// New loads the dataset list from store and builds the in-memory index.
func New(ctx context.Context, store Store, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}

	datasets, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	r := &Registry{
		store:    store,
		log:      log,
		datasets: datasets,
		byID:     make(map[string]*domain.Dataset, len(datasets)),
	}
	for _, d := range datasets {
		r.byID[d.ID] = d
		if d.Seq >= r.nextSeq {
			r.nextSeq = d.Seq + 1
		}
	}
	return r, nil
}

// Add registers a new dataset in pending state. Returns false when the ID
// is already present.
func (r *Registry) Add(ctx context.Context, id string, priority int, dom domain.Domain, name string) (bool, error) {
	if _, exists := r.byID[id]; exists {
		r.log.Warn("dataset already registered", "dataset", id)
		return false, nil
	}

	now := time.Now()
	d := &domain.Dataset{
		ID:        id,
		Name:      name,
		Domain:    domain.ParseDomain(string(dom)),
		Priority:  domain.ClampPriority(priority),
		Status:    domain.StatusPending,
		AddedAt:   now,
		UpdatedAt: now,
		Seq:       r.nextSeq,
	}
	r.nextSeq++
	r.datasets = append(r.datasets, d)
	r.byID[id] = d

	if err := r.persist(ctx); err != nil {
		return false, err
	}
	r.log.Info("dataset registered", "dataset", id, "priority", d.Priority, "domain", d.Domain)
	return true, nil
}

// NextEligible returns the pending dataset with the highest priority, ties
// broken by insertion order (first added wins). Nil when nothing is pending.
func (r *Registry) NextEligible() *domain.Dataset {
	var best *domain.Dataset
	for _, d := range r.datasets {
		if d.Status != domain.StatusPending {
			continue
		}
		if best == nil || d.Priority > best.Priority ||
			(d.Priority == best.Priority && d.Seq < best.Seq) {
			best = d
		}
	}
	return best
}

// UpdateStatus transitions a dataset and appends exactly one history entry.
// Returns false, leaving the record unchanged, when the status is not one
// of the four valid values or the dataset does not exist.
func (r *Registry) UpdateStatus(ctx context.Context, id string, status domain.DatasetStatus, errMsg string) (bool, error) {
	if !domain.ValidStatus(status) {
		r.log.Warn("rejected invalid status", "dataset", id, "status", status)
		return false, nil
	}
	d, ok := r.byID[id]
	if !ok {
		r.log.Warn("status update for unknown dataset", "dataset", id)
		return false, nil
	}

	now := time.Now()
	d.StatusHistory = append(d.StatusHistory, domain.StatusChange{
		From:         d.Status,
		To:           status,
		Timestamp:    now,
		ErrorMessage: errMsg,
	})
	d.Status = status
	d.ErrorMessage = errMsg
	d.UpdatedAt = now

	if err := r.persist(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes a dataset. Returns false when the ID is unknown.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	for i, d := range r.datasets {
		if d.ID == id {
			r.datasets = append(r.datasets[:i], r.datasets[i+1:]...)
			break
		}
	}
	if err := r.persist(ctx); err != nil {
		return false, err
	}
	r.log.Info("dataset removed", "dataset", id)
	return true, nil
}

// Get returns a dataset by ID, or nil.
func (r *Registry) Get(id string) *domain.Dataset {
	return r.byID[id]
}

// List returns datasets, optionally filtered by status. An empty filter
// returns everything, in insertion order.
func (r *Registry) List(statusFilter domain.DatasetStatus) []*domain.Dataset {
	out := make([]*domain.Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		if statusFilter != "" && d.Status != statusFilter {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Stats summarizes the inventory.
type Stats struct {
	Total    int                          `json:"total"`
	ByStatus map[domain.DatasetStatus]int `json:"by_status"`
	ByDomain map[domain.Domain]int        `json:"by_domain"`
}

func (r *Registry) Stats() Stats {
	s := Stats{
		Total:    len(r.datasets),
		ByStatus: make(map[domain.DatasetStatus]int),
		ByDomain: make(map[domain.Domain]int),
	}
	for _, d := range r.datasets {
		s.ByStatus[d.Status]++
		s.ByDomain[d.Domain]++
	}
	return s
}

func (r *Registry) persist(ctx context.Context) error {
	if err := r.store.Save(ctx, r.datasets); err != nil {
		return fmt.Errorf("failed to persist registry: %w", err)
	}
	return nil
}
