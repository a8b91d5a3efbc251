package window

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbot/internal/domain/entity"
)

var econ = entity.Source{Name: "mk", URL: "https://mk.example.com/rss", Topic: entity.TopicEconomy}

func raw(title, published string) entity.RawItem {
	return entity.RawItem{Title: title, Link: "https://mk.example.com/" + title, Published: published}
}

func TestSelector_WatermarkPolicy(t *testing.T) {
	sel := NewSelector(time.UTC, 0)
	wm := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{
		raw("old", "2025-03-01T08:59:59Z"),
		raw("at", "2025-03-01T09:00:00Z"),
		raw("new", "2025-03-01T09:30:00Z"),
		raw("newer", "2025-03-01T10:00:00Z"),
	}, WatermarkBoundary(wm))

	require.Len(t, got.Articles, 2)
	assert.Equal(t, "newer", got.Articles[0].Title)
	assert.Equal(t, "new", got.Articles[1].Title)
	assert.Equal(t, 0, got.ParseFailures)
	assert.True(t, got.Newest.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestSelector_FixedPolicyInclusive(t *testing.T) {
	sel := NewSelector(time.UTC, 0)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{
		raw("before", "2025-03-01T07:59:59Z"),
		raw("start", "2025-03-01T08:00:00Z"),
		raw("end", "2025-03-01T10:00:00Z"),
		raw("after", "2025-03-01T10:00:01Z"),
	}, FixedBoundary(start, end))

	titles := make([]string, 0, len(got.Articles))
	for _, a := range got.Articles {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"end", "start"}, titles)
}

func TestSelector_UnparseableTimestampDropsOnlyThatItem(t *testing.T) {
	sel := NewSelector(time.UTC, 0)
	wm := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{
		raw("good", "2025-03-01T09:00:00Z"),
		raw("bad", "yesterday-ish"),
		raw("missing", ""),
	}, WatermarkBoundary(wm))

	require.Len(t, got.Articles, 1)
	assert.Equal(t, "good", got.Articles[0].Title)
	assert.Equal(t, 2, got.ParseFailures)
}

func TestSelector_TagsAndNormalizes(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	sel := NewSelector(seoul, 0)
	wm := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{{
		Title:       "  Fed raises rates  ",
		Link:        " https://mk.example.com/fed ",
		Description: "<p>desc</p>",
		Published:   "2025-03-01 10:00:00",
	}}, WatermarkBoundary(wm))

	want := []entity.Article{{
		Title:       "Fed raises rates",
		Link:        "https://mk.example.com/fed",
		Description: "<p>desc</p>",
		PublishedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, seoul),
		SourceID:    "mk",
		Topic:       entity.TopicEconomy,
	}}
	if diff := cmp.Diff(want, got.Articles); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSelector_MaxItemsKeepsNewest(t *testing.T) {
	sel := NewSelector(time.UTC, 2)
	wm := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{
		raw("a", "2025-03-01T01:00:00Z"),
		raw("c", "2025-03-01T03:00:00Z"),
		raw("b", "2025-03-01T02:00:00Z"),
	}, WatermarkBoundary(wm))

	require.Len(t, got.Articles, 2)
	assert.Equal(t, "c", got.Articles[0].Title)
	assert.Equal(t, "b", got.Articles[1].Title)
}

func TestSelector_EqualTimestampsKeepFeedOrder(t *testing.T) {
	sel := NewSelector(time.UTC, 0)
	wm := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got := sel.Select(econ, []entity.RawItem{
		raw("first", "2025-03-01T01:00:00Z"),
		raw("second", "2025-03-01T01:00:00Z"),
	}, WatermarkBoundary(wm))

	require.Len(t, got.Articles, 2)
	assert.Equal(t, "first", got.Articles[0].Title)
	assert.Equal(t, "second", got.Articles[1].Title)
}

func TestSelector_NothingSelected(t *testing.T) {
	sel := NewSelector(nil, -1)
	got := sel.Select(econ, nil, WatermarkBoundary(time.Now()))

	assert.Empty(t, got.Articles)
	assert.True(t, got.Newest.IsZero())
	assert.Equal(t, time.UTC, sel.Location())
}
