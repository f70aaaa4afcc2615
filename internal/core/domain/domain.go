package domain

// Domain is a fixed statistical category determining the canonical schema.
type Domain string

const (
	DomainGeneric     Domain = "generic"
	DomainPopulation  Domain = "population"
	DomainEconomy     Domain = "economy"
	DomainLabour      Domain = "labour"
	DomainEnvironment Domain = "environment"
)

// Domains lists every known domain.
var Domains = []Domain{
	DomainGeneric,
	DomainPopulation,
	DomainEconomy,
	DomainLabour,
	DomainEnvironment,
}

// ParseDomain normalizes a domain string, falling back to generic.
func ParseDomain(s string) Domain {
	for _, d := range Domains {
		if string(d) == s {
			return d
		}
	}
	return DomainGeneric
}

// TableName derives the lake table a domain's records load into.
func (d Domain) TableName() string {
	return string(d) + "_data"
}
