// Package mapper converts raw upstream records into canonical per-domain
// records using fixed column dictionaries.
package mapper

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// columnSpec maps aliased upstream field names onto one canonical column.
type columnSpec struct {
	canonical string
	kind      domain.FieldKind
	aliases   []string
	required  bool
}

var commonColumns = []columnSpec{
	{canonical: "region", kind: domain.FieldString, aliases: []string{"region", "area", "kommune", "county"}},
	{canonical: "year", kind: domain.FieldInt, aliases: []string{"year", "time", "tid", "period"}},
	{canonical: "date", kind: domain.FieldTime, aliases: []string{"date", "timestamp"}},
	{canonical: "value", kind: domain.FieldFloat, aliases: []string{"value", "val", "observation"}, required: true},
}

var domainColumns = map[domain.Domain][]columnSpec{
	domain.DomainPopulation: {
		{canonical: "age", kind: domain.FieldString, aliases: []string{"age", "age_group", "alder"}},
		{canonical: "sex", kind: domain.FieldString, aliases: []string{"sex", "gender", "kjonn"}},
	},
	domain.DomainEconomy: {
		{canonical: "indicator", kind: domain.FieldString, aliases: []string{"indicator", "account", "konto"}},
		{canonical: "sector", kind: domain.FieldString, aliases: []string{"sector", "industry_sector", "sektor"}},
	},
	domain.DomainLabour: {
		{canonical: "industry", kind: domain.FieldString, aliases: []string{"industry", "naering", "nace"}},
		{canonical: "employment_status", kind: domain.FieldString, aliases: []string{"employment_status", "status", "sysselsetting"}},
	},
	domain.DomainEnvironment: {
		{canonical: "source", kind: domain.FieldString, aliases: []string{"source", "emission_source", "kilde"}},
		{canonical: "component", kind: domain.FieldString, aliases: []string{"component", "pollutant", "komponent"}},
	},
	domain.DomainGeneric: {
		{canonical: "category", kind: domain.FieldString, aliases: []string{"category", "group", "contents"}},
	},
}

var domainKeywords = map[domain.Domain][]string{
	domain.DomainPopulation:  {"population", "befolkning", "inhabitants", "migration", "births", "deaths"},
	domain.DomainEconomy:     {"economy", "gdp", "national accounts", "price", "income", "cpi"},
	domain.DomainLabour:      {"labour", "labor", "employment", "unemployment", "workforce", "earnings"},
	domain.DomainEnvironment: {"environment", "emission", "climate", "energy", "waste"},
}

// Mapper implements the field-mapping contract for all known domains.
type Mapper struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Mapper {
	if log == nil {
		log = slog.Default()
	}
	return &Mapper{log: log}
}

// InferDomain guesses a dataset's statistical domain from its title.
func (m *Mapper) InferDomain(title string) domain.Domain {
	t := strings.ToLower(title)
	for _, d := range []domain.Domain{
		domain.DomainPopulation,
		domain.DomainEconomy,
		domain.DomainLabour,
		domain.DomainEnvironment,
	} {
		for _, kw := range domainKeywords[d] {
			if strings.Contains(t, kw) {
				return d
			}
		}
	}
	return domain.DomainGeneric
}

// Map converts one raw record to the canonical schema of dom. Columns whose
// aliases are absent from the record are simply omitted; a missing or
// unparseable value field is an error and the record should be dropped.
func (m *Mapper) Map(raw domain.RawRecord, dom domain.Domain, datasetID string) (domain.CanonicalRecord, error) {
	specs := append(append([]columnSpec{}, commonColumns...), domainColumns[dom]...)

	rec := domain.CanonicalRecord{
		DatasetID: datasetID,
		Fields:    make(map[string]domain.FieldValue, len(specs)),
	}

	for _, spec := range specs {
		rawValue, ok := lookup(raw, spec.aliases)
		if !ok {
			if spec.required {
				return domain.CanonicalRecord{}, fmt.Errorf("record missing required field %q", spec.canonical)
			}
			continue
		}
		v, err := convert(rawValue, spec.kind)
		if err != nil {
			if spec.required {
				return domain.CanonicalRecord{}, fmt.Errorf("invalid %s value %v: %w", spec.canonical, rawValue, err)
			}
			// Optional columns degrade to their string form rather than
			// dropping the record.
			v = domain.StringValue(fmt.Sprintf("%v", rawValue))
		}
		rec.Fields[spec.canonical] = v
	}

	return rec, nil
}

func lookup(raw domain.RawRecord, aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := raw[a]; ok {
			return v, true
		}
	}
	// Upstream casing varies; fall back to a case-insensitive scan.
	for k, v := range raw {
		lk := strings.ToLower(k)
		for _, a := range aliases {
			if lk == a {
				return v, true
			}
		}
	}
	return nil, false
}

func convert(v any, kind domain.FieldKind) (domain.FieldValue, error) {
	switch kind {
	case domain.FieldString:
		return domain.StringValue(fmt.Sprintf("%v", v)), nil

	case domain.FieldInt:
		switch n := v.(type) {
		case int:
			return domain.IntValue(int64(n)), nil
		case int64:
			return domain.IntValue(n), nil
		case float64:
			return domain.IntValue(int64(n)), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return domain.FieldValue{}, fmt.Errorf("parse int: %w", err)
			}
			return domain.IntValue(i), nil
		}
		return domain.FieldValue{}, fmt.Errorf("unsupported int source %T", v)

	case domain.FieldFloat:
		switch n := v.(type) {
		case int:
			return domain.FloatValue(float64(n)), nil
		case int64:
			return domain.FloatValue(float64(n)), nil
		case float64:
			return domain.FloatValue(n), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return domain.FieldValue{}, fmt.Errorf("parse float: %w", err)
			}
			return domain.FloatValue(f), nil
		}
		return domain.FieldValue{}, fmt.Errorf("unsupported float source %T", v)

	case domain.FieldTime:
		s, ok := v.(string)
		if !ok {
			return domain.FieldValue{}, fmt.Errorf("unsupported time source %T", v)
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return domain.TimeValue(t), nil
			}
		}
		return domain.FieldValue{}, fmt.Errorf("unparseable time %q", s)
	}
	return domain.FieldValue{}, fmt.Errorf("unknown field kind %d", kind)
}
