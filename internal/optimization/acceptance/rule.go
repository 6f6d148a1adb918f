// Package acceptance implements the state-transition rules the drivers use
// to decide whether a candidate replaces the incumbent.
package acceptance

import (
	"fmt"
	"math"
)

// Rule is an acceptance strategy
type Rule int

const (
	// KeepBest replaces the incumbent with the best candidate of a batch,
	// only when it is strictly better. Ties keep the incumbent.
	KeepBest Rule = iota

	// FirstImprovement takes the first candidate, in scan order, that is
	// strictly better than the incumbent and skips the rest.
	FirstImprovement

	// AlwaysStep takes the proposed step unconditionally, even when it is
	// worse than the incumbent. In a batch the proposal is the first
	// candidate in scan order.
	AlwaysStep
)

// String returns the rule name
func (r Rule) String() string {
	switch r {
	case KeepBest:
		return "keep_best"
	case FirstImprovement:
		return "first_improvement"
	case AlwaysStep:
		return "always_step"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// ParseRule parses a rule name as produced by String
func ParseRule(name string) (Rule, error) {
	switch name {
	case "keep_best":
		return KeepBest, nil
	case "first_improvement":
		return FirstImprovement, nil
	case "always_step":
		return AlwaysStep, nil
	default:
		return 0, fmt.Errorf("unknown acceptance rule %q", name)
	}
}

// Accept reports whether a single candidate replaces the incumbent
func (r Rule) Accept(incumbent, candidate float64) bool {
	if r == AlwaysStep {
		return true
	}
	return candidate < incumbent
}

// Select applies the rule to a batch of candidate values given in scan
// order. It returns the index of the accepted candidate or -1 when the
// incumbent is kept. KeepBest and FirstImprovement never select NaN.
func (r Rule) Select(incumbent float64, values []float64) int {
	switch r {
	case FirstImprovement:
		for i, v := range values {
			if v < incumbent {
				return i
			}
		}
		return -1
	case AlwaysStep:
		if len(values) == 0 {
			return -1
		}
		return 0
	default:
		pos := argmin(values)
		if pos < 0 || !(values[pos] < incumbent) {
			return -1
		}
		return pos
	}
}

// argmin returns the first index of the smallest non-NaN value, or -1
func argmin(values []float64) int {
	pos := -1
	best := math.Inf(1)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if pos < 0 || v < best {
			pos, best = i, v
		}
	}
	return pos
}
