package pipeline

import (
	"fmt"
	"strings"
)

// MissingPolicy decides what happens to items whose publish time is unknown.
type MissingPolicy int

const (
	// MissingDrop removes unknown-timestamp items whenever a lower bound is
	// active, since their recency cannot be shown.
	MissingDrop MissingPolicy = iota
	// MissingSortLast keeps them and orders them after every dated item.
	MissingSortLast
)

func (p MissingPolicy) String() string {
	if p == MissingSortLast {
		return "sort_last"
	}
	return "drop"
}

// ParseMissingPolicy accepts "drop" or "sort_last". Empty input yields
// MissingDrop.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return MissingDrop, nil
	case "sort_last", "sort-last", "last", "keep":
		return MissingSortLast, nil
	default:
		return MissingDrop, fmt.Errorf("unknown missing-timestamp policy %q (want drop or sort_last)", s)
	}
}

const (
	MinLimit = 1
	MaxLimit = 50
)

// ClampLimit forces n into [MinLimit, MaxLimit].
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
