package scanners

import (
	"github.com/reaandrew/secsweep/tools"
)

// Pair is one tool/target combination of the run. Every combination
// produces exactly one invocation record, whether it runs or not.
type Pair struct {
	Tool   *tools.Tool
	Target ResolvedTarget
}

// BuildPairs enumerates the tool/target combinations in deterministic
// order: tools in selection order, targets in the order they were given.
func BuildPairs(selected []*tools.Tool, targets []ResolvedTarget) []Pair {
	pairs := make([]Pair, 0, len(selected)*len(targets))
	for _, tool := range selected {
		for _, target := range targets {
			pairs = append(pairs, Pair{Tool: tool, Target: target})
		}
	}
	return pairs
}
