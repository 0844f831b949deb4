// Package feeds holds the registry of syndication sources the ingester
// polls. The built-in registry ships compiled into the binary; a CSV file
// can replace it wholesale at startup.
package feeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"oppwatch/ingestor/internal/models"
)

// DefaultRegistry returns the built-in list of feed descriptors. The
// returned slice is a fresh copy; callers may not mutate shared state
// through it.
func DefaultRegistry() []models.FeedDescriptor {
	return []models.FeedDescriptor{
		{
			Name:     "Opportunity Desk",
			URL:      "https://opportunitydesk.org/feed/",
			Category: "scholarship",
			Provider: "opportunitydesk.org",
		},
		{
			Name:     "Scholarship Positions",
			URL:      "https://scholarship-positions.com/feed/",
			Category: "scholarship",
			Provider: "scholarship-positions.com",
		},
		{
			Name:     "Youth Opportunities",
			URL:      "https://www.youthop.com/feed",
			Category: "internship",
			Provider: "youthop.com",
		},
		{
			Name:     "Opportunities For Africans",
			URL:      "https://www.opportunitiesforafricans.com/feed/",
			Category: "scholarship",
			Provider: "opportunitiesforafricans.com",
		},
		{
			Name:     "After School Africa",
			URL:      "https://www.afterschoolafrica.com/feed/",
			Category: "scholarship",
			Provider: "afterschoolafrica.com",
		},
	}
}

// LoadCSV reads feed descriptors from a CSV file with the header columns
// name, url, category and provider (any order, case-insensitive). Rows
// missing a name or url are skipped and reported in the summary log, not
// returned as errors; a file yielding zero usable rows is an error.
func LoadCSV(path string) ([]models.FeedDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feeds CSV: %w", err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]models.FeedDescriptor, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	nameIdx := findColumnIndex(header, "name")
	urlIdx := findColumnIndex(header, "url")
	categoryIdx := findColumnIndex(header, "category")
	providerIdx := findColumnIndex(header, "provider")

	for column, idx := range map[string]int{
		"name": nameIdx, "url": urlIdx, "category": categoryIdx, "provider": providerIdx,
	} {
		if idx < 0 {
			return nil, fmt.Errorf("required column '%s' not found in CSV header", column)
		}
	}

	var descriptors []models.FeedDescriptor
	lineCount := 1 // Header was already read
	skipped := 0

	for {
		lineCount++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", lineCount).Msg("Error reading CSV line")
			skipped++
			continue
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		fd := models.FeedDescriptor{
			Name:     safeGetValue(record, nameIdx),
			URL:      safeGetValue(record, urlIdx),
			Category: safeGetValue(record, categoryIdx),
			Provider: safeGetValue(record, providerIdx),
		}

		if fd.Name == "" || fd.URL == "" {
			log.Warn().Int("line", lineCount).Msg("Skipping row with empty name or url")
			skipped++
			continue
		}

		descriptors = append(descriptors, fd)
	}

	log.Info().
		Int("loaded", len(descriptors)).
		Int("skipped", skipped).
		Msg("Feed registry loaded from CSV")

	if len(descriptors) == 0 {
		return nil, fmt.Errorf("feeds CSV contained no usable rows")
	}
	return descriptors, nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns the trimmed value at index, or "" when the record
// is too short.
func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}
