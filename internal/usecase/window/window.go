// Package window selects the feed items that fall inside a run's time window.
package window

import (
	"fmt"
	"time"
)

// Policy names a selection policy.
type Policy string

const (
	// PolicyWatermark keeps items strictly newer than the key's watermark.
	PolicyWatermark Policy = "watermark"
	// PolicyFixed keeps items inside [now-lookback, now-lag].
	PolicyFixed Policy = "fixed"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyWatermark, PolicyFixed:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown window policy %q (must be watermark or fixed)", s)
	}
}

// Boundary decides whether an instant is inside the window.
type Boundary struct {
	policy Policy
	after  time.Time
	start  time.Time
	end    time.Time
}

// WatermarkBoundary keeps instants strictly after watermark.
func WatermarkBoundary(watermark time.Time) Boundary {
	return Boundary{policy: PolicyWatermark, after: watermark}
}

// FixedBoundary keeps instants in the closed interval [start, end].
func FixedBoundary(start, end time.Time) Boundary {
	return Boundary{policy: PolicyFixed, start: start, end: end}
}

// FixedWindow is FixedBoundary(now-lookback, now-lag).
func FixedWindow(now time.Time, lookback, lag time.Duration) Boundary {
	return FixedBoundary(now.Add(-lookback), now.Add(-lag))
}

// Policy returns the boundary's policy.
func (b Boundary) Policy() Policy {
	return b.policy
}

// Contains reports whether t is inside the boundary.
func (b Boundary) Contains(t time.Time) bool {
	if b.policy == PolicyFixed {
		return !t.Before(b.start) && !t.After(b.end)
	}
	return t.After(b.after)
}

// String describes the boundary for logs.
func (b Boundary) String() string {
	if b.policy == PolicyFixed {
		return fmt.Sprintf("[%s, %s]", b.start.Format(time.RFC3339), b.end.Format(time.RFC3339))
	}
	return fmt.Sprintf("(%s, ∞)", b.after.Format(time.RFC3339))
}
