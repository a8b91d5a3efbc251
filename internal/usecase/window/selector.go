package window

import (
	"errors"
	"sort"
	"strings"
	"time"

	"newsbot/internal/domain/entity"
)

// Selection is the per-source outcome of applying a boundary.
type Selection struct {
	// Articles are tagged with source and topic, newest first.
	Articles []entity.Article
	// ParseFailures counts items dropped for an unparseable publish time.
	ParseFailures int
	// Newest is the latest PublishedAt among Articles (zero when empty).
	Newest time.Time
}

// Selector filters raw items by publish time.
type Selector struct {
	loc      *time.Location
	maxItems int
}

// NewSelector returns a Selector normalizing to loc. maxItems caps the
// articles kept per source, newest first; 0 keeps everything.
func NewSelector(loc *time.Location, maxItems int) *Selector {
	if loc == nil {
		loc = time.UTC
	}
	if maxItems < 0 {
		maxItems = 0
	}
	return &Selector{loc: loc, maxItems: maxItems}
}

// Location returns the reference time zone.
func (s *Selector) Location() *time.Location {
	return s.loc
}

// Select keeps the items of src whose publish time is inside b.
// An unparseable publish time drops only that item.
func (s *Selector) Select(src entity.Source, items []entity.RawItem, b Boundary) Selection {
	var sel Selection

	for _, it := range items {
		at, err := ParseTime(it.Published, it.PublishedAt, s.loc)
		if err != nil {
			if errors.Is(err, entity.ErrParse) {
				sel.ParseFailures++
			}
			continue
		}
		if !b.Contains(at) {
			continue
		}
		sel.Articles = append(sel.Articles, entity.Article{
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Description: it.Description,
			PublishedAt: at,
			SourceID:    src.Name,
			Topic:       src.Topic,
		})
	}

	sort.SliceStable(sel.Articles, func(i, j int) bool {
		return sel.Articles[i].PublishedAt.After(sel.Articles[j].PublishedAt)
	})
	if s.maxItems > 0 && len(sel.Articles) > s.maxItems {
		sel.Articles = sel.Articles[:s.maxItems]
	}
	if len(sel.Articles) > 0 {
		sel.Newest = sel.Articles[0].PublishedAt
	}
	return sel
}
