package dedup

import (
	"fmt"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/metrics"
)

// Result is the outcome of one dedup pass.
type Result struct {
	Unique       []entity.Article
	ExactDropped int
	NearDropped  int
}

// Resolver removes duplicates from an ordered candidate list.
type Resolver struct {
	threshold float64
	strategy  Strategy
}

// NewResolver validates threshold (0, 1] and strategy.
func NewResolver(threshold float64, strategy Strategy) (*Resolver, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
	}
	if _, err := NewMatcher(strategy, threshold); err != nil {
		return nil, err
	}
	if strategy == "" {
		strategy = StrategyScan
	}
	return &Resolver{threshold: threshold, strategy: strategy}, nil
}

// Threshold returns the configured overlap threshold.
func (r *Resolver) Threshold() float64 { return r.threshold }

// Dedupe keeps the first occurrence of each story in candidate order. The
// input is expected newest first, so the newest copy wins.
func (r *Resolver) Dedupe(candidates []entity.Article) Result {
	matcher, _ := NewMatcher(r.strategy, r.threshold)
	seen := make(map[string]struct{}, len(candidates))
	res := Result{Unique: make([]entity.Article, 0, len(candidates))}

	for _, a := range candidates {
		key := Key(a)
		if _, dup := seen[key]; dup {
			res.ExactDropped++
			continue
		}
		tokens := Tokenize(a.Title)
		if matcher.Match(tokens) {
			res.NearDropped++
			continue
		}
		seen[key] = struct{}{}
		matcher.Accept(tokens)
		res.Unique = append(res.Unique, a)
	}

	metrics.RecordDuplicatesDropped(res.ExactDropped, res.NearDropped)
	return res
}
