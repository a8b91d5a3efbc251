// Package scraper retrieves RSS/Atom feed documents.
// It uses the gofeed library to parse feed content behind a per-host circuit breaker.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"newsbot/internal/domain/entity"
	"newsbot/internal/resilience/circuitbreaker"
	"newsbot/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

const userAgent = "NewsbotRelay/1.0"

// RSSFetcher retrieves one feed document per call using the gofeed library.
// Retrying is left to the caller; each call is a single attempt.
type RSSFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Group
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client and one
// circuit breaker per feed host.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return NewRSSFetcherWithBreakers(client, circuitbreaker.NewGroup(circuitbreaker.FeedFetchConfig()))
}

// NewRSSFetcherWithBreakers is NewRSSFetcher with an explicit breaker group.
func NewRSSFetcherWithBreakers(client *http.Client, breakers *circuitbreaker.Group) *RSSFetcher {
	return &RSSFetcher{client: client, breakers: breakers}
}

// Fetch retrieves and parses the feed at feedURL.
//
// Errors are classified for the caller: unparseable documents wrap
// entity.ErrFetchMalformed, non-2xx responses are *retry.HTTPError, and
// transport errors are returned as-is.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) (*entity.Document, error) {
	host := hostOf(feedURL)
	cb := f.breakers.Get(host)

	result, err := cb.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, feedURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Warn("feed fetch circuit breaker open, request rejected",
				slog.String("host", host),
				slog.String("url", feedURL),
				slog.String("state", cb.State().String()))
			return nil, fmt.Errorf("circuit open for %s: %w", host, err)
		}
		return nil, err
	}

	return result.(*entity.Document), nil
}

// doFetch performs the actual feed fetch without the circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) (*entity.Document, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, classify(err)
	}
	if feed == nil {
		return nil, fmt.Errorf("%w: no document", entity.ErrFetchMalformed)
	}

	doc := &entity.Document{
		Title: feed.Title,
		Items: make([]entity.RawItem, 0, len(feed.Items)),
	}
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		doc.Items = append(doc.Items, toRawItem(it))
	}
	return doc, nil
}

func toRawItem(it *gofeed.Item) entity.RawItem {
	// Description preferred, full content as fallback
	desc := it.Description
	if desc == "" {
		desc = it.Content
	}

	raw := entity.RawItem{
		Title:       strings.TrimSpace(it.Title),
		Link:        strings.TrimSpace(it.Link),
		Description: desc,
		Published:   it.Published,
	}
	switch {
	case it.PublishedParsed != nil:
		t := *it.PublishedParsed
		raw.PublishedAt = &t
	case it.Published == "" && it.UpdatedParsed != nil:
		// Atom entries often carry only <updated>
		t := *it.UpdatedParsed
		raw.PublishedAt = &t
		raw.Published = it.Updated
	case it.Published == "":
		raw.Published = it.Updated
	}
	return raw
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}

	// Anything else came out of the parser.
	return fmt.Errorf("%w: %v", entity.ErrFetchMalformed, err)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
