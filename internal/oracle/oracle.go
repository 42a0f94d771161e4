// Package oracle resolves file paths for code blocks that the heuristic
// cascade could not place, by asking an external language model.
package oracle

import (
	"context"
	"fmt"
)

// NoPath is the sentinel reply when the oracle cannot name a file.
const NoPath = "NO_PATH"

// Policy selects when the oracle is consulted.
type Policy string

const (
	// PolicyFallback consults the oracle only after the heuristic cascade fails.
	PolicyFallback Policy = "fallback"
	// PolicyAlways makes the oracle the sole authority, bypassing heuristics.
	PolicyAlways Policy = "always"
	// PolicyOff disables oracle calls entirely.
	PolicyOff Policy = "off"
)

// ParsePolicy validates a policy name from flags or the environment.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFallback, PolicyAlways, PolicyOff:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown oracle policy %q (want fallback, always or off)", s)
}

// Window is the bounded context sent with each query. It is never the whole
// document: a few lines above the fence, the fence itself and the first
// lines of code keep request cost flat.
type Window struct {
	Before []string // lines preceding the opening fence
	Fence  string   // the opening fence line, language tag included
	Code   []string // leading lines of the block
}

// Oracle answers path queries for code blocks.
type Oracle interface {
	// Ask returns a validated relative path, or NoPath when the model cannot
	// or should not name one. Transport failures surface as errors; callers
	// treat those as NoPath for the affected block only.
	Ask(ctx context.Context, w Window) (string, error)
}
