package dedup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"newsbot/internal/domain/entity"
)

func TestKey(t *testing.T) {
	a := entity.Article{Title: "  Fed   Raises\tRates ", Link: "https://x/1"}
	b := entity.Article{Title: "fed raises rates", Link: "https://x/1"}
	c := entity.Article{Title: "fed raises rates", Link: "https://x/2"}

	assert.Equal(t, "fed raises rates|https://x/1", Key(a))
	assert.Equal(t, Key(a), Key(b))
	assert.NotEqual(t, Key(b), Key(c), "link is part of the key")

	norm := entity.Article{Title: "fed raises rates", Link: a.Link}
	assert.Equal(t, Key(a), Key(norm), "normalizing twice changes nothing")
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"ascii", "Fed raises rates, today!", []string{"fed", "raises", "rates", "today"}},
		{"single runes dropped", "A B c dd", []string{"dd"}},
		{"korean", "한국은행, 기준금리 동결", []string{"한국은행", "기준금리", "동결"}},
		{"digits kept", "GDP 2.5% up", []string{"gdp", "up"}},
		{"digits long enough", "Q3 2025 results", []string{"q3", "2025", "results"}},
		{"set semantics", "rates rates RATES", []string{"rates"}},
		{"nothing left", "- a / b -", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := TokenSet{}
			for _, w := range tt.want {
				want[w] = struct{}{}
			}
			if diff := cmp.Diff(want, Tokenize(tt.title)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.title, diff)
			}
		})
	}
}

func TestOverlap(t *testing.T) {
	a := Tokenize("Fed raises rates today")
	b := Tokenize("Fed raises rates tomorrow")

	assert.InDelta(t, 0.75, Overlap(a, b), 1e-12)
	assert.InDelta(t, Overlap(a, b), Overlap(b, a), 1e-12, "symmetric")
	assert.InDelta(t, 1.0, Overlap(a, a), 1e-12)

	// Overlap divides by the larger set.
	short := Tokenize("Fed raises")
	assert.InDelta(t, 0.5, Overlap(short, a), 1e-12)
}

func TestSimilar_ThresholdIsInclusive(t *testing.T) {
	a := Tokenize("Fed raises rates today")
	b := Tokenize("Fed raises rates tomorrow")

	assert.True(t, Similar(a, b, 0.75))
	assert.False(t, Similar(a, b, 0.8))
}

func TestSimilar_InclusiveDespiteFloatError(t *testing.T) {
	// 7/10 = 0.7 is not exactly representable.
	a := Tokenize("aa bb cc dd ee ff gg hh ii jj")
	b := Tokenize("aa bb cc dd ee ff gg xx yy zz")
	assert.True(t, Similar(a, b, 0.7))
}

func TestSimilar_EmptySetsNeverMatch(t *testing.T) {
	empty := Tokenize("- !")
	assert.Empty(t, empty)
	assert.False(t, Similar(empty, empty, 0.01))
	assert.False(t, Similar(empty, Tokenize("Fed raises rates"), 0.01))
}
