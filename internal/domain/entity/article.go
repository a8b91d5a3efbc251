// Package entity defines the core domain entities of the relay: articles,
// topics and the feed sources that produce them, along with the error
// taxonomy shared by every layer.
package entity

import "time"

// Article is a normalized feed item selected for a run.
// It is created per run from a source's raw items and never persisted.
type Article struct {
	Title       string
	Link        string
	Description string
	// PublishedAt is normalized to the reference time zone.
	PublishedAt time.Time
	// SourceID is the name of the source the item came from.
	SourceID string
	Topic    TopicID
}

// RawItem is a feed item as returned by a document fetcher, before any
// timestamp normalization.
type RawItem struct {
	Title       string
	Link        string
	Description string
	// Published is the raw publish time string as found in the document.
	Published string
	// PublishedAt is set when the fetcher already parsed the timestamp.
	PublishedAt *time.Time
}

// Document is the ordered collection of items retrieved from one source.
type Document struct {
	Title string
	Items []RawItem
}
