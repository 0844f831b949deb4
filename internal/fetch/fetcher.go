// Package fetch retrieves and parses one syndication feed at a time.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"oppwatch/ingestor/internal/models"
)

// Item is one raw feed entry. Link falls back to the item GUID when the
// feed omits a link element.
type Item struct {
	Title          string
	Link           string
	ContentSnippet string
	Content        string
}

// Feed is the parsed result of one fetch.
type Feed struct {
	Title string
	Items []Item
}

// Fetcher fetches and parses feeds with a fixed per-request timeout and an
// identifying user agent.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// New creates a Fetcher.
func New(timeout time.Duration, userAgent string) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &Fetcher{
		parser:  parser,
		timeout: timeout,
	}
}

// Fetch retrieves and parses the feed behind the descriptor. Any network
// or parse failure is reported as a single error for the whole feed; the
// caller decides whether the run continues.
func (f *Fetcher) Fetch(ctx context.Context, fd models.FeedDescriptor) (*Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := f.parser.ParseURLWithContext(fd.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s (%s): %w", fd.Name, fd.URL, err)
	}

	feed := &Feed{
		Title: raw.Title,
		Items: make([]Item, 0, len(raw.Items)),
	}
	for _, it := range raw.Items {
		if it == nil {
			continue
		}
		link := it.Link
		if link == "" {
			link = it.GUID
		}
		feed.Items = append(feed.Items, Item{
			Title:          strings.TrimSpace(it.Title),
			Link:           strings.TrimSpace(link),
			ContentSnippet: it.Description,
			Content:        it.Content,
		})
	}

	return feed, nil
}
