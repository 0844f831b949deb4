// Package store persists Opportunity records in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"oppwatch/ingestor/internal/database"
	"oppwatch/ingestor/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

// DefaultCleanupBatch caps how many aged records one Cleanup invocation
// may delete. The cap is deliberately not looped over: each invocation
// removes at most one batch and the next scheduled cleanup continues.
const DefaultCleanupBatch = 500

// Store wraps the database with the two write paths the ingestion
// pipeline needs plus the dedup read.
type Store struct {
	db *database.DB

	// CleanupBatch overrides DefaultCleanupBatch when positive.
	CleanupBatch int
}

// New creates a Store on an existing database connection.
func New(db *database.DB) *Store {
	return &Store{db: db, CleanupBatch: DefaultCleanupBatch}
}

// Exists reports whether a record with exactly this (title, link) pair is
// already persisted. This is a read-before-write check, not a
// transaction; callers serialize runs around it.
func (s *Store) Exists(ctx context.Context, title, link string) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		"SELECT 1 FROM opportunities WHERE title = ? AND link = ? LIMIT 1", title, link)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup query for %q: %w", title, err)
	}
	return true, nil
}

// Save appends one record. Failures are returned, never panicked; the
// caller treats them as a per-item error count.
func (s *Store) Save(ctx context.Context, opp *models.Opportunity) error {
	requirements, err := json.Marshal(opp.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}
	benefits, err := json.Marshal(opp.Benefits)
	if err != nil {
		return fmt.Errorf("marshal benefits: %w", err)
	}
	process, err := json.Marshal(opp.ApplicationProcess)
	if err != nil {
		return fmt.Errorf("marshal application process: %w", err)
	}
	tags, err := json.Marshal(opp.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO opportunities (
			id, title, organization, category, application_deadline,
			location, description, requirements, benefits,
			application_process, link, provider, tags, difficulty_level,
			match_score, applicant_count, success_rate, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID, opp.Title, opp.Organization, opp.Category, opp.ApplicationDeadline,
		opp.Location, opp.Description, requirements, benefits,
		process, opp.Link, opp.Provider, tags, opp.DifficultyLevel,
		opp.MatchScore, opp.ApplicantCount, opp.SuccessRate,
		opp.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert opportunity %q: %w", opp.Title, err)
	}
	return nil
}

// Cleanup deletes records whose created_at precedes now minus
// retentionDays, capped at one batch, and returns the exact count
// deleted. Zero when nothing qualifies.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retentionDays must be positive")
	}

	batch := s.CleanupBatch
	if batch <= 0 {
		batch = DefaultCleanupBatch
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	cutoffStr := cutoff.Format(timeFormat)

	log.Info().
		Str("cutoff_date", cutoffStr).
		Int("retention_days", retentionDays).
		Msg("Cleaning up aged opportunities")

	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM opportunities WHERE created_at < ? ORDER BY created_at ASC LIMIT ?",
		cutoffStr, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to select aged opportunities: %w", err)
	}
	if len(ids) == 0 {
		log.Info().Msg("No aged opportunities to clean up")
		return 0, nil
	}

	query, args, err := sqlx.In("DELETE FROM opportunities WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete aged opportunities: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		log.Warn().Err(err).Msg("Could not get RowsAffected after cleanup")
		return int64(len(ids)), nil
	}

	log.Info().
		Int64("deleted", deleted).
		Msg("Cleaned up aged opportunities")
	return deleted, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM opportunities"); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return n, nil
}
