package models

import "time"

// FeedRunResult holds the per-feed counters for one orchestrator pass.
// Processed always increments for every item looked at; Saved, Duplicates
// and Errors are mutually exclusive per item.
type FeedRunResult struct {
	FeedName   string
	Processed  int
	Saved      int
	Duplicates int
	Errors     int
}

// RunSummary aggregates one full pass over every configured feed. It is
// assembled once per run and immutable after return.
type RunSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	TotalFeeds      int
	FeedResults     []FeedRunResult
	TotalProcessed  int
	TotalSaved      int
	TotalDuplicates int
	TotalErrors     int
}

// Add folds one feed's result into the summary totals.
func (s *RunSummary) Add(r FeedRunResult) {
	s.FeedResults = append(s.FeedResults, r)
	s.TotalProcessed += r.Processed
	s.TotalSaved += r.Saved
	s.TotalDuplicates += r.Duplicates
	s.TotalErrors += r.Errors
}
