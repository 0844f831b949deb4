package schedule

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oppwatch/ingestor/internal/config"
	"oppwatch/ingestor/internal/database"
	"oppwatch/ingestor/internal/fetch"
	"oppwatch/ingestor/internal/models"
	"oppwatch/ingestor/internal/scrape"
	"oppwatch/ingestor/internal/store"
)

type staticFetcher struct {
	feed *fetch.Feed
}

func (f *staticFetcher) Fetch(context.Context, models.FeedDescriptor) (*fetch.Feed, error) {
	return f.feed, nil
}

func newTestOrchestrator(t *testing.T) (*scrape.Orchestrator, *store.Store) {
	t.Helper()
	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	fetcher := &staticFetcher{feed: &fetch.Feed{
		Title: "Feed A",
		Items: []fetch.Item{{
			Title:          "One",
			Link:           "https://a.example/1",
			ContentSnippet: "An opportunity.",
		}},
	}}
	registry := []models.FeedDescriptor{
		{Name: "A", URL: "https://a.example/feed", Category: "scholarship", Provider: "a.example"},
	}
	return scrape.New(fetcher, st, registry, scrape.Config{}), st
}

func TestNewFallsBackOnInvalidSchedule(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	cfg := config.DefaultConfig()
	cfg.CronSchedule = "not a schedule"

	s := New(orch, cfg)
	assert.Equal(t, config.DefaultCronSchedule, s.scrapeSpec)
}

func TestStartAndStop(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	cfg := config.DefaultConfig()
	cfg.RunOnStartup = false

	s := New(orch, cfg)
	require.NoError(t, s.Start())
	assert.Len(t, s.entries, 2)

	select {
	case <-s.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestStartupRunFiresAfterDelay(t *testing.T) {
	orch, st := newTestOrchestrator(t)

	cfg := config.DefaultConfig()
	cfg.RunOnStartup = true
	cfg.StartupDelay = 10 * time.Millisecond

	s := New(orch, cfg)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		count, err := st.Count(context.Background())
		return err == nil && count == 1
	}, 5*time.Second, 20*time.Millisecond, "startup run never persisted the item")
}

func TestStopCancelsPendingStartupRun(t *testing.T) {
	orch, st := newTestOrchestrator(t)

	cfg := config.DefaultConfig()
	cfg.RunOnStartup = true
	cfg.StartupDelay = time.Hour

	s := New(orch, cfg)
	require.NoError(t, s.Start())
	<-s.Stop().Done()

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
