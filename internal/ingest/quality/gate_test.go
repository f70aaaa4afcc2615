package quality

import (
	"errors"
	"testing"

	"github.com/datalakehq/statingest/internal/core/domain"
)

func rec(fields map[string]domain.FieldValue) domain.CanonicalRecord {
	return domain.CanonicalRecord{DatasetID: "ds1", Fields: fields}
}

func TestValidateRequiredColumns(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{
			"year":  domain.IntValue(2020),
			"value": domain.FloatValue(1.5),
		}),
	}

	report := ValidateRequiredColumns(records, []string{"year", "value", "region"})
	if report.Valid {
		t.Error("expected invalid when a required column is missing")
	}
	if len(report.Missing) != 1 || report.Missing[0] != "region" {
		t.Errorf("Missing = %v, want [region]", report.Missing)
	}

	if report := ValidateRequiredColumns(nil, []string{"year"}); !report.Valid {
		t.Error("empty input should be trivially valid")
	}
}

func TestCheckNulls(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{"region": domain.StringValue("A")}),
		rec(map[string]domain.FieldValue{"region": domain.StringValue("")}),
		rec(map[string]domain.FieldValue{"region": domain.StringValue("null")}),
		rec(map[string]domain.FieldValue{}), // column absent entirely
	}

	report := CheckNulls(records, []string{"region"})
	if !report.HasNulls {
		t.Fatal("expected nulls detected")
	}
	if report.Counts["region"] != 3 {
		t.Errorf("Counts[region] = %d, want 3", report.Counts["region"])
	}
}

func TestValidateRanges(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(5)}),
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(-1)}),
		rec(map[string]domain.FieldValue{"value": domain.StringValue("not a number")}), // skipped
		rec(map[string]domain.FieldValue{}),                                            // skipped
		rec(map[string]domain.FieldValue{"value": domain.StringValue("150")}),
	}

	min, max := 0.0, 100.0
	report := ValidateRanges(records, "value", &min, &max)
	if report.Valid {
		t.Error("expected range violations")
	}
	if report.ViolationCount != 2 {
		t.Errorf("ViolationCount = %d, want 2", report.ViolationCount)
	}
	if len(report.Violations) != 2 {
		t.Errorf("Violations length = %d, want 2", len(report.Violations))
	}
}

func TestValidateRanges_ViolationListCapped(t *testing.T) {
	var records []domain.CanonicalRecord
	for i := 0; i < 25; i++ {
		records = append(records, rec(map[string]domain.FieldValue{"value": domain.FloatValue(-1)}))
	}

	min := 0.0
	report := ValidateRanges(records, "value", &min, nil)
	if report.ViolationCount != 25 {
		t.Errorf("ViolationCount = %d, want 25", report.ViolationCount)
	}
	if len(report.Violations) != 10 {
		t.Errorf("Violations length = %d, want 10", len(report.Violations))
	}
}

func TestDetectDuplicates(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{"year": domain.IntValue(2020), "region": domain.StringValue("A")}),
		rec(map[string]domain.FieldValue{"year": domain.IntValue(2020), "region": domain.StringValue("A")}),
		rec(map[string]domain.FieldValue{"year": domain.IntValue(2021), "region": domain.StringValue("B")}),
	}

	report := DetectDuplicates(records, []string{"year", "region"})
	if !report.HasDuplicates {
		t.Fatal("expected duplicates")
	}
	if report.DuplicateCount != 1 {
		t.Errorf("DuplicateCount = %d, want 1", report.DuplicateCount)
	}
	if report.TotalDuplicateRecords != 2 {
		t.Errorf("TotalDuplicateRecords = %d, want 2", report.TotalDuplicateRecords)
	}
}

func TestQuarantine(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(1)}),
		rec(map[string]domain.FieldValue{}),
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(2)}),
	}

	validate := func(batch []domain.CanonicalRecord) error {
		if _, ok := batch[0].Get("value"); !ok {
			return errors.New("missing value column")
		}
		return nil
	}

	valid, invalid := Quarantine(records, validate)
	if len(valid) != 2 {
		t.Errorf("valid = %d, want 2", len(valid))
	}
	if len(invalid) != 1 {
		t.Fatalf("invalid = %d, want 1", len(invalid))
	}
	if invalid[0].Reason != "missing value column" {
		t.Errorf("Reason = %q", invalid[0].Reason)
	}
}

func TestQuarantine_PanickingValidatorFailsOnlyThatRecord(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(1)}),
		rec(map[string]domain.FieldValue{"value": domain.StringValue("boom")}),
		rec(map[string]domain.FieldValue{"value": domain.FloatValue(3)}),
	}

	validate := func(batch []domain.CanonicalRecord) error {
		v, _ := batch[0].Get("value")
		if v.Kind == domain.FieldString {
			panic("unexpected type")
		}
		return nil
	}

	valid, invalid := Quarantine(records, validate)
	if len(valid) != 2 || len(invalid) != 1 {
		t.Fatalf("valid=%d invalid=%d, want 2/1", len(valid), len(invalid))
	}
}
