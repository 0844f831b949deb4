// Package normalize converts raw feed items into Opportunity records via
// heuristic text extraction.
package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"oppwatch/ingestor/internal/fetch"
	"oppwatch/ingestor/internal/models"
)

// ErrInvalidItem marks a feed item missing its title or link. Such items
// are skipped and counted as errors, never persisted.
var ErrInvalidItem = errors.New("feed item missing title or link")

const maxDescriptionLen = 500

// applicationProcess is the fixed boilerplate attached to every record.
var applicationProcess = []string{
	"Visit the application link",
	"Review the eligibility requirements",
	"Prepare the required documents",
	"Submit your application before the deadline",
}

// Normalizer builds Opportunity records from raw items.
type Normalizer struct {
	now func() time.Time
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize converts one raw item plus its feed descriptor into an
// Opportunity. All heuristic extraction runs over a single blob built from
// the item's title, snippet and full content.
func (n *Normalizer) Normalize(item fetch.Item, fd models.FeedDescriptor) (*models.Opportunity, error) {
	if item.Title == "" || item.Link == "" {
		return nil, ErrInvalidItem
	}

	blob := item.Title + " " + item.ContentSnippet + " " + item.Content

	return &models.Opportunity{
		ID:                  uuid.NewString(),
		Title:               item.Title,
		Organization:        organizationFromProvider(fd.Provider),
		Category:            fd.Category,
		ApplicationDeadline: extractDeadline(blob),
		Location:            extractLocation(blob),
		Description:         truncate(description(item), maxDescriptionLen),
		Requirements:        extractRequirements(blob),
		Benefits:            extractBenefits(blob),
		ApplicationProcess:  applicationProcess,
		Link:                item.Link,
		Provider:            fd.Provider,
		Tags:                []string{},
		DifficultyLevel:     determineDifficulty(blob),
		CreatedAt:           n.now().UTC(),
	}, nil
}

// description prefers the snippet and falls back to the full content.
func description(item fetch.Item) string {
	if s := strings.TrimSpace(item.ContentSnippet); s != "" {
		return s
	}
	return strings.TrimSpace(item.Content)
}

// organizationFromProvider derives a display name from the provider
// domain by stripping its ".com"/".org" suffix.
func organizationFromProvider(provider string) string {
	org := strings.TrimSuffix(provider, ".com")
	org = strings.TrimSuffix(org, ".org")
	return org
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
