package run

import (
	"context"
	"fmt"
	"sync"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/usecase/fetch"
)

// staticFetcher returns a canned document or failure per source name.
type staticFetcher struct {
	mu    sync.Mutex
	docs  map[string][]entity.RawItem
	fails map[string]entity.FailureKind
	calls int
}

func (f *staticFetcher) FetchAll(_ context.Context, sources []entity.Source) []fetch.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	out := make([]fetch.Result, len(sources))
	for i, src := range sources {
		if kind, ok := f.fails[src.Name]; ok {
			out[i] = fetch.Result{Source: src, Attempts: 3, Err: &fetch.FetchError{
				Source: src.Name, Kind: kind, Attempts: 3, Message: "boom",
			}}
			continue
		}
		out[i] = fetch.Result{Source: src, Attempts: 1, Document: &entity.Document{Items: f.docs[src.Name]}}
	}
	return out
}

func (f *staticFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory monotonic watermark store.
type memStore struct {
	mu        sync.Mutex
	marks     map[string]time.Time
	fallback  time.Time
	loadErr   error
	commitErr error
	loads     int
	commits   int
}

func newMemStore(fallback time.Time) *memStore {
	return &memStore{marks: make(map[string]time.Time), fallback: fallback}
}

func (s *memStore) Load(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return time.Time{}, s.loadErr
	}
	if t, ok := s.marks[key]; ok {
		return t, nil
	}
	return s.fallback, nil
}

func (s *memStore) Commit(_ context.Context, key string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	if s.commitErr != nil {
		return s.commitErr
	}
	if cur, ok := s.marks[key]; !ok || t.After(cur) {
		s.marks[key] = t
	}
	return nil
}

func (s *memStore) get(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.marks[key]
	return t, ok
}

type deliveryCall struct {
	topic    entity.TopicID
	dest     string
	articles []entity.Article
	at       time.Time
}

// recordingDeliverer records every call and fails the configured topics.
type recordingDeliverer struct {
	mu    sync.Mutex
	calls []deliveryCall
	fail  map[entity.TopicID]bool
}

func (d *recordingDeliverer) Deliver(_ context.Context, topic entity.TopicConfig, articles []entity.Article) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, deliveryCall{topic: topic.ID, dest: topic.Destination, articles: articles, at: time.Now()})
	if d.fail[topic.ID] {
		return fmt.Errorf("webhook returned 500")
	}
	return nil
}

func (d *recordingDeliverer) Calls() []deliveryCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]deliveryCall, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *recordingDeliverer) byTopic(topic entity.TopicID) []entity.Article {
	for _, c := range d.Calls() {
		if c.topic == topic {
			return c.articles
		}
	}
	return nil
}

// hangingDocuments returns a document for every URL except those in hang,
// which block until the attempt is abandoned.
type hangingDocuments struct {
	items map[string][]entity.RawItem
	hang  map[string]bool
}

func (h hangingDocuments) Fetch(ctx context.Context, url string) (*entity.Document, error) {
	if h.hang[url] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &entity.Document{Items: h.items[url]}, nil
}
