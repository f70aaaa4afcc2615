// Package quality implements the record quality gate: pure checks that
// report problems without mutating input and never abort the batch.
package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datalakehq/statingest/internal/core/domain"
)

const exampleLimit = 10

// ColumnReport is the result of a required-column check.
type ColumnReport struct {
	Valid   bool
	Missing []string
}

// ValidateRequiredColumns compares the column set of the first record
// against required. An empty input is trivially valid.
func ValidateRequiredColumns(records []domain.CanonicalRecord, required []string) ColumnReport {
	if len(records) == 0 {
		return ColumnReport{Valid: true}
	}

	present := make(map[string]bool, len(records[0].Fields))
	for c := range records[0].Fields {
		present[c] = true
	}

	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return ColumnReport{Valid: len(missing) == 0, Missing: missing}
}

// NullReport is the result of a null check over key columns.
type NullReport struct {
	HasNulls bool
	Counts   map[string]int
}

// CheckNulls counts null values per key column. A value is null when it is
// absent, empty, or the literal string "null".
func CheckNulls(records []domain.CanonicalRecord, keyColumns []string) NullReport {
	counts := make(map[string]int)
	for _, r := range records {
		for _, c := range keyColumns {
			v, ok := r.Get(c)
			if !ok || v.IsNull() {
				counts[c]++
			}
		}
	}
	return NullReport{HasNulls: len(counts) > 0, Counts: counts}
}

// RangeViolation is one out-of-range value.
type RangeViolation struct {
	RecordIndex int
	Value       float64
}

// RangeReport is the result of a numeric range check.
type RangeReport struct {
	Valid          bool
	Violations     []RangeViolation
	ViolationCount int
}

// ValidateRanges checks that numeric values in column fall within
// [min, max]. Nil bounds are open-ended. Absent or non-numeric values are
// skipped, not counted as violations. At most 10 violations are listed;
// ViolationCount is the full total.
func ValidateRanges(records []domain.CanonicalRecord, column string, min, max *float64) RangeReport {
	report := RangeReport{Valid: true}
	for i, r := range records {
		v, ok := r.Get(column)
		if !ok {
			continue
		}
		f, ok := v.Numeric()
		if !ok {
			continue
		}
		if (min != nil && f < *min) || (max != nil && f > *max) {
			report.ViolationCount++
			if len(report.Violations) < exampleLimit {
				report.Violations = append(report.Violations, RangeViolation{RecordIndex: i, Value: f})
			}
		}
	}
	report.Valid = report.ViolationCount == 0
	return report
}

// DuplicateReport is the result of a duplicate check.
type DuplicateReport struct {
	HasDuplicates         bool
	DuplicateCount        int // number of duplicated key groups
	TotalDuplicateRecords int // records participating in those groups
	Examples              []string
}

// DetectDuplicates groups records by the tuple of keyColumns values. Any
// group with more than one record is a duplicate set. At most 10 example
// keys are listed.
func DetectDuplicates(records []domain.CanonicalRecord, keyColumns []string) DuplicateReport {
	groups := make(map[string]int)
	order := make([]string, 0)

	for _, r := range records {
		parts := make([]string, 0, len(keyColumns))
		for _, c := range keyColumns {
			v, _ := r.Get(c)
			parts = append(parts, v.String())
		}
		key := strings.Join(parts, "|")
		if groups[key] == 0 {
			order = append(order, key)
		}
		groups[key]++
	}

	report := DuplicateReport{}
	for _, key := range order {
		n := groups[key]
		if n > 1 {
			report.DuplicateCount++
			report.TotalDuplicateRecords += n
			if len(report.Examples) < exampleLimit {
				report.Examples = append(report.Examples, key)
			}
		}
	}
	report.HasDuplicates = report.DuplicateCount > 0
	return report
}

// Validator checks a batch of records and returns an error describing the
// first problem found, or nil when the batch is acceptable.
type Validator func(records []domain.CanonicalRecord) error

// Invalid pairs a quarantined record with the reason it was rejected.
type Invalid struct {
	Record domain.CanonicalRecord
	Reason string
}

// Quarantine applies validate to each record individually and partitions
// the input. One bad record never aborts the batch; a panicking validator
// fails only the record that triggered it.
func Quarantine(records []domain.CanonicalRecord, validate Validator) (valid []domain.CanonicalRecord, invalid []Invalid) {
	for _, r := range records {
		err := runValidator(validate, r)
		if err != nil {
			invalid = append(invalid, Invalid{Record: r, Reason: err.Error()})
			continue
		}
		valid = append(valid, r)
	}
	return valid, invalid
}

func runValidator(validate Validator, r domain.CanonicalRecord) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("validator panic: %v", p)
		}
	}()
	return validate([]domain.CanonicalRecord{r})
}
