package fetch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// valueColumn is the numeric observation field. It is excluded from record
// identity when deduplicating across category sub-fetches.
const valueColumn = "value"

// PickCategoryDimension chooses the dimension to partition an oversized
// dataset by. Preference order is area, then time, then the first remaining
// dimension by name. This is a heuristic carried over from how upstream
// datasets are usually shaped, not an optimal partitioning.
func PickCategoryDimension(dimensions map[string][]string) (string, []string, bool) {
	if len(dimensions) == 0 {
		return "", nil, false
	}
	for _, preferred := range []string{"area", "time"} {
		if values, ok := dimensions[preferred]; ok && len(values) > 0 {
			return preferred, values, true
		}
	}
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if values := dimensions[name]; len(values) > 0 {
			return name, values, true
		}
	}
	return "", nil, false
}

// FetchByCategory retrieves a dataset too large to page directly by issuing
// one filtered sub-fetch per category value, sequentially or with bounded
// concurrency. Sub-fetch failures are isolated and counted; records are
// deduplicated across sub-fetches by composite key over every field except
// the numeric value field.
func (f *Fetcher) FetchByCategory(ctx context.Context, datasetID, dimension string, values []string, parallel bool, maxConcurrency int) (domain.FetchResult, error) {
	if len(values) == 0 {
		return domain.FetchResult{}, fmt.Errorf("no category values for dataset %s", datasetID)
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConfig.MaxConcurrency
	}

	f.log.Info("starting category fetch",
		"dataset", datasetID, "dimension", dimension,
		"categories", len(values), "parallel", parallel)

	pages := make([]domain.FetchPage, len(values))

	if parallel {
		sem := semaphore.NewWeighted(int64(maxConcurrency))
		var wg sync.WaitGroup
		for i, v := range values {
			wg.Add(1)
			go func(idx int, value string) {
				defer wg.Done()
				if err := sem.Acquire(ctx, 1); err != nil {
					pages[idx] = domain.FetchPage{Index: idx, Err: err}
					return
				}
				defer sem.Release(1)
				pages[idx] = f.fetchCategory(ctx, datasetID, dimension, idx, value)
			}(i, v)
		}
		wg.Wait()
	} else {
		for i, v := range values {
			pages[i] = f.fetchCategory(ctx, datasetID, dimension, i, v)
		}
	}

	result := domain.FetchResult{PagesAttempted: len(values)}
	seen := make(map[string]bool)
	for _, p := range pages {
		if p.Err != nil {
			result.PagesFailed++
			f.log.Warn("category fetch failed permanently",
				"dataset", datasetID, "dimension", dimension,
				"category", values[p.Index], "error", p.Err)
			continue
		}
		for _, r := range p.Records {
			key := identityKey(r)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Records = append(result.Records, r)
		}
	}

	f.log.Info("category fetch done",
		"dataset", datasetID, "records", len(result.Records),
		"categories_failed", result.PagesFailed)
	return result, nil
}

func (f *Fetcher) fetchCategory(ctx context.Context, datasetID, dimension string, idx int, value string) domain.FetchPage {
	page := domain.FetchPage{Index: idx}
	page.Err = f.engine.Execute(ctx, fmt.Sprintf("fetch %s %s=%s", datasetID, dimension, value),
		func(ctx context.Context) error {
			records, err := f.remote.FetchFiltered(ctx, datasetID, map[string][]string{dimension: {value}})
			if err != nil {
				return err
			}
			page.Records = records
			return nil
		})
	return page
}

// identityKey builds a record's dedupe identity: the sorted field:value
// pairs of every field except the observation value.
func identityKey(r domain.RawRecord) string {
	parts := make([]string, 0, len(r))
	for k, v := range r {
		if k == valueColumn {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
