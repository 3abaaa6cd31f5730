package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidDurationFormat is returned when a bound matches neither the
	// relative nor the absolute grammar.
	ErrInvalidDurationFormat = errors.New("invalid duration format")
	// ErrInvalidDateFormat is returned when a bound looks like a calendar date
	// but does not name a real day.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrInvalidRange is returned when the lower bound is after the upper bound.
	ErrInvalidRange = errors.New("invalid range: since is after until")
)

var (
	relativeRe = regexp.MustCompile(`^(\d+)([smhdw])$`)
	// dateLikeRe matches anything date-shaped; the layouts in ParseBound
	// require two-digit months and days.
	dateLikeRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)
)

var units = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// ParseBound turns "7d", "24h", "2025-10-01" or "2025/10/01" into a UTC
// instant. Relative values are subtracted from now.
func ParseBound(input string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("%w: %q (amount must be a positive integer)", ErrInvalidDurationFormat, input)
		}
		unit := units[m[2]]
		if n > int64(maxDuration/unit) {
			return time.Time{}, fmt.Errorf("%w: %q is out of range", ErrInvalidDurationFormat, input)
		}
		return now.UTC().Add(-time.Duration(n) * unit), nil
	}

	if dateLikeRe.MatchString(s) {
		layout := "2006-01-02"
		if strings.Contains(s, "/") {
			layout = "2006/01/02"
		}
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, input)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q (use N followed by s, m, h, d or w, or YYYY-MM-DD)", ErrInvalidDurationFormat, input)
}

const maxDuration = time.Duration(1<<63 - 1)

// Window is an optional [Since, Until] pair of UTC instants.
type Window struct {
	Since *time.Time
	Until *time.Time
}

// ParseWindow parses both bounds; an empty string leaves that side open.
func ParseWindow(since, until string, now time.Time) (Window, error) {
	var w Window
	if strings.TrimSpace(since) != "" {
		t, err := ParseBound(since, now)
		if err != nil {
			return Window{}, fmt.Errorf("since: %w", err)
		}
		w.Since = &t
	}
	if strings.TrimSpace(until) != "" {
		t, err := ParseBound(until, now)
		if err != nil {
			return Window{}, fmt.Errorf("until: %w", err)
		}
		w.Until = &t
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate reports ErrInvalidRange when both bounds are set and reversed.
func (w Window) Validate() error {
	if w.Since != nil && w.Until != nil && w.Since.After(*w.Until) {
		return fmt.Errorf("%w (%s > %s)", ErrInvalidRange,
			w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window. Both ends are inclusive.
func (w Window) Contains(t time.Time) bool {
	if w.Since != nil && t.Before(*w.Since) {
		return false
	}
	if w.Until != nil && t.After(*w.Until) {
		return false
	}
	return true
}

// HasLowerBound reports whether a since bound is active.
func (w Window) HasLowerBound() bool { return w.Since != nil }
