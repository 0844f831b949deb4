package scrape

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oppwatch/ingestor/internal/database"
	"oppwatch/ingestor/internal/fetch"
	"oppwatch/ingestor/internal/models"
	"oppwatch/ingestor/internal/normalize"
	"oppwatch/ingestor/internal/store"
)

// fakeFetcher serves canned feeds keyed by descriptor name.
type fakeFetcher struct {
	feeds map[string]*fetch.Feed
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, fd models.FeedDescriptor) (*fetch.Feed, error) {
	if err, ok := f.errs[fd.Name]; ok {
		return nil, err
	}
	if feed, ok := f.feeds[fd.Name]; ok {
		return feed, nil
	}
	return &fetch.Feed{Title: fd.Name}, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

func item(title, link string) fetch.Item {
	return fetch.Item{
		Title:          title,
		Link:           link,
		ContentSnippet: "An opportunity for students.",
	}
}

func TestScrapeAllAggregatesAcrossFeeds(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	registry := []models.FeedDescriptor{
		{Name: "A", URL: "https://a.example/feed", Category: "scholarship", Provider: "a.example"},
		{Name: "B", URL: "https://b.example/feed", Category: "internship", Provider: "b.example"},
	}

	// One of feed A's three items is already persisted; feed B's fetch
	// fails outright.
	stored, err := normalize.New().Normalize(item("Known", "https://a.example/known"), registry[0])
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, stored))

	fetcher := &fakeFetcher{
		feeds: map[string]*fetch.Feed{
			"A": {Title: "Feed A", Items: []fetch.Item{
				item("New one", "https://a.example/1"),
				item("Known", "https://a.example/known"),
				item("New two", "https://a.example/2"),
			}},
		},
		errs: map[string]error{"B": errors.New("connection refused")},
	}

	o := New(fetcher, st, registry, Config{})
	summary, err := o.ScrapeAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalFeeds)
	assert.Equal(t, 3, summary.TotalProcessed)
	assert.Equal(t, 2, summary.TotalSaved)
	assert.Equal(t, 1, summary.TotalDuplicates)
	assert.Equal(t, 1, summary.TotalErrors)
	require.Len(t, summary.FeedResults, 2)

	// Results come back in registry order.
	assert.Equal(t, "A", summary.FeedResults[0].FeedName)
	assert.Equal(t, "B", summary.FeedResults[1].FeedName)
	assert.Equal(t, 1, summary.FeedResults[1].Errors)
	assert.Equal(t, 0, summary.FeedResults[1].Processed)

	assert.False(t, summary.EndTime.Before(summary.StartTime))
	assert.Equal(t, summary.EndTime.Sub(summary.StartTime), summary.Duration)
}

func TestScrapeAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	registry := []models.FeedDescriptor{
		{Name: "A", URL: "https://a.example/feed", Category: "scholarship", Provider: "a.example"},
	}
	fetcher := &fakeFetcher{
		feeds: map[string]*fetch.Feed{
			"A": {Title: "Feed A", Items: []fetch.Item{
				item("One", "https://a.example/1"),
				item("Two", "https://a.example/2"),
				item("Three", "https://a.example/3"),
			}},
		},
	}

	o := New(fetcher, st, registry, Config{})

	first, err := o.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalSaved)
	assert.Equal(t, 0, first.TotalDuplicates)

	second, err := o.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalSaved)
	assert.Equal(t, 3, second.TotalDuplicates)
	assert.Equal(t, 0, second.TotalErrors)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestScrapeFeedGuardsInvalidItems(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	fd := models.FeedDescriptor{Name: "A", URL: "https://a.example/feed", Provider: "a.example"}
	fetcher := &fakeFetcher{
		feeds: map[string]*fetch.Feed{
			"A": {Title: "Feed A", Items: []fetch.Item{
				{Title: "No link at all"},
				{Link: "https://a.example/untitled"},
				item("Fine", "https://a.example/fine"),
			}},
		},
	}

	o := New(fetcher, st, []models.FeedDescriptor{fd}, Config{})
	result := o.ScrapeFeed(ctx, fd)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 2, result.Errors)
}

func TestScrapeFeedCapsItems(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	fd := models.FeedDescriptor{Name: "A", URL: "https://a.example/feed", Provider: "a.example"}
	fetcher := &fakeFetcher{
		feeds: map[string]*fetch.Feed{
			"A": {Title: "Feed A", Items: []fetch.Item{
				item("1", "https://a.example/1"),
				item("2", "https://a.example/2"),
				item("3", "https://a.example/3"),
				item("4", "https://a.example/4"),
			}},
		},
	}

	o := New(fetcher, st, []models.FeedDescriptor{fd}, Config{MaxItemsPerFeed: 2})
	result := o.ScrapeFeed(ctx, fd)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Saved)
}

func TestOverlappingRunsAreRejected(t *testing.T) {
	st := newTestStore(t)
	o := New(&fakeFetcher{}, st, nil, Config{})

	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := o.ScrapeAll(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)

	_, err = o.Cleanup(context.Background(), 90)
	require.ErrorIs(t, err, ErrRunInProgress)
}

func TestScrapeAllHonorsFeedDelayCancellation(t *testing.T) {
	st := newTestStore(t)
	registry := []models.FeedDescriptor{
		{Name: "A", URL: "https://a.example/feed", Provider: "a.example"},
		{Name: "B", URL: "https://b.example/feed", Provider: "b.example"},
	}
	o := New(&fakeFetcher{}, st, registry, Config{FeedDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	summary, err := o.ScrapeAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Len(t, summary.FeedResults, 1)
}
