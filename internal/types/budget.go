package types

// Budget constrains the fan-out of external calls for one request.
type Budget struct {
	MaxQueries         int `mapstructure:"max-queries" json:"max_queries"`
	MaxResultsPerQuery int `mapstructure:"max-results-per-query" json:"max_results_per_query"`
	MaxScored          int `mapstructure:"max-scored" json:"max_scored"`
	MaxFeed            int `mapstructure:"max-feed" json:"max_feed"`
	MaxCatalogScored   int `mapstructure:"max-catalog-scored" json:"max_catalog_scored"`
	Concurrency        int `mapstructure:"concurrency" json:"concurrency"`
}

const (
	// HardMaxQueries is the ceiling of provider queries per search regardless of configuration.
	HardMaxQueries = 3
	// HardMaxScored is the ceiling of deduplicated external results scored per search.
	HardMaxScored = 20
)

// DefaultBudget returns the process-wide defaults.
func DefaultBudget() Budget {
	return Budget{
		MaxQueries:         3,
		MaxResultsPerQuery: 10,
		MaxScored:          20,
		MaxFeed:            20,
		MaxCatalogScored:   100,
		Concurrency:        4,
	}
}

// Normalize fills zero values with defaults and enforces the hard ceilings.
func (b Budget) Normalize() Budget {
	def := DefaultBudget()
	if b.MaxQueries <= 0 {
		b.MaxQueries = def.MaxQueries
	}
	if b.MaxQueries > HardMaxQueries {
		b.MaxQueries = HardMaxQueries
	}
	if b.MaxResultsPerQuery <= 0 {
		b.MaxResultsPerQuery = def.MaxResultsPerQuery
	}
	if b.MaxScored <= 0 {
		b.MaxScored = def.MaxScored
	}
	if b.MaxScored > HardMaxScored {
		b.MaxScored = HardMaxScored
	}
	if b.MaxFeed <= 0 {
		b.MaxFeed = def.MaxFeed
	}
	if b.MaxCatalogScored <= 0 {
		b.MaxCatalogScored = def.MaxCatalogScored
	}
	if b.Concurrency <= 0 {
		b.Concurrency = def.Concurrency
	}
	return b
}

// ClampLimit bounds a client supplied limit to [1, ceiling]. Non-positive
// requests get the ceiling.
func ClampLimit(requested, ceiling int) int {
	if ceiling <= 0 {
		return 0
	}
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}
