package dedup

import "fmt"

// Strategy names a Matcher implementation.
type Strategy string

const (
	StrategyScan  Strategy = "scan"
	StrategyIndex Strategy = "index"
)

// Matcher remembers accepted titles and answers whether a candidate is a
// near-duplicate of any of them. A Matcher is used for a single pass and is
// not safe for concurrent use.
type Matcher interface {
	// Match reports whether tokens are similar to an accepted title.
	Match(tokens TokenSet) bool
	// Accept records tokens as an accepted title.
	Accept(tokens TokenSet)
}

// NewMatcher builds the matcher named by strategy.
func NewMatcher(strategy Strategy, threshold float64) (Matcher, error) {
	switch strategy {
	case StrategyScan, "":
		return NewScanMatcher(threshold), nil
	case StrategyIndex:
		return NewIndexMatcher(threshold), nil
	default:
		return nil, fmt.Errorf("unknown dedup strategy %q (must be scan or index)", strategy)
	}
}

// ScanMatcher compares a candidate against every accepted title.
type ScanMatcher struct {
	threshold float64
	accepted  []TokenSet
}

func NewScanMatcher(threshold float64) *ScanMatcher {
	return &ScanMatcher{threshold: threshold}
}

func (m *ScanMatcher) Match(tokens TokenSet) bool {
	for _, prev := range m.accepted {
		if Similar(tokens, prev, m.threshold) {
			return true
		}
	}
	return false
}

func (m *ScanMatcher) Accept(tokens TokenSet) {
	m.accepted = append(m.accepted, tokens)
}

// IndexMatcher keeps an inverted index from token to accepted titles and only
// scores titles sharing at least one token with the candidate.
type IndexMatcher struct {
	threshold float64
	sizes     []int
	postings  map[string][]int
}

func NewIndexMatcher(threshold float64) *IndexMatcher {
	return &IndexMatcher{threshold: threshold, postings: make(map[string][]int)}
}

func (m *IndexMatcher) Match(tokens TokenSet) bool {
	if len(tokens) == 0 {
		return false
	}
	shared := make(map[int]int)
	for tok := range tokens {
		for _, id := range m.postings[tok] {
			shared[id]++
		}
	}
	for id, n := range shared {
		denom := max(len(tokens), m.sizes[id])
		if float64(n)/float64(denom)+epsilon >= m.threshold {
			return true
		}
	}
	return false
}

func (m *IndexMatcher) Accept(tokens TokenSet) {
	id := len(m.sizes)
	m.sizes = append(m.sizes, len(tokens))
	for tok := range tokens {
		m.postings[tok] = append(m.postings[tok], id)
	}
}
