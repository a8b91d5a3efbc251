package window

import (
	"fmt"
	"strings"
	"time"

	"newsbot/internal/domain/entity"

	"github.com/araddon/dateparse"
)

// layouts are tried in order before falling back to dateparse. Layouts
// without an offset are interpreted in the reference location.
var layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006-01-02",
}

// ParseTime resolves an item's publish time in loc.
//
// The raw string wins when it parses, so that zone-less strings are read in
// loc rather than in whatever zone the feed parser assumed. The pre-parsed
// value is the fallback. Failure wraps entity.ErrParse.
func ParseTime(raw string, preParsed *time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
				return t.In(loc), nil
			}
		}
		if t, err := dateparse.ParseIn(raw, loc); err == nil {
			return t.In(loc), nil
		}
	}

	if preParsed != nil && !preParsed.IsZero() {
		return preParsed.In(loc), nil
	}

	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing", entity.ErrParse)
	}
	return time.Time{}, fmt.Errorf("%w: %q", entity.ErrParse, raw)
}
