// Package selection parses "1,3-5" style item pickers.
package selection

import (
	"strconv"
	"strings"
)

// Parse returns the 1-based indices named by expr, in first-mention order
// and without duplicates. Tokens are single indices or inclusive ranges A-B;
// reversed ranges are normalized. Malformed or out-of-range tokens (relative
// to n items) are ignored.
func Parse(expr string, n int) []int {
	var out []int
	seen := make(map[int]bool)
	add := func(i int) {
		if i < 1 || i > n || seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
	}

	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(tok, "-")
		if !isRange {
			if i, err := strconv.Atoi(tok); err == nil {
				add(i)
			}
			continue
		}

		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil {
			continue
		}
		if a > b {
			a, b = b, a
		}
		if a < 1 {
			a = 1
		}
		if b > n {
			b = n
		}
		for i := a; i <= b; i++ {
			add(i)
		}
	}
	return out
}
