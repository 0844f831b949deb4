package models

import "time"

// Opportunity represents one normalized posting extracted from a feed item.
// Records are inserted once and never updated in place; the retention
// cleanup path is the only thing that removes them. The (Title, Link) pair
// is the natural key used for deduplication.
type Opportunity struct {
	ID                  string
	Title               string
	Organization        string
	Category            string
	ApplicationDeadline string
	Location            string
	Description         string
	Requirements        []string
	Benefits            []string
	ApplicationProcess  []string
	Link                string
	Provider            string
	Tags                []string
	DifficultyLevel     string
	CreatedAt           time.Time

	// Placeholders populated by downstream personalization, never by
	// ingestion.
	MatchScore     *float64
	ApplicantCount *int64
	SuccessRate    *float64
}
