package requirement

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/danielpatrickdp/casefiles/internal/progress"
)

// fixtureTrees covers every variant, including the empty composites.
var fixtureTrees = []Requirement{
	Item("e1"),
	Threshold(progress.MetricItemCount, 3),
	Threshold(progress.MetricResourceSpent, 4),
	All(),
	Any(),
	All(Item("e1"), Threshold(progress.MetricResourceSpent, 6)),
	Any(Item("e3"), Threshold(progress.MetricItemCount, 3)),
	Any(All(Item("e0"), Item("e2")), All(Item("e4"), Threshold(progress.MetricProgressUnits, 2))),
}

func itemsFrom(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = fmt.Sprintf("e%d", n)
	}
	return out
}

// Adding evidence or metric units never re-locks a satisfied requirement.
func TestMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("satisfaction is monotone in progress", prop.ForAll(
		func(base, extra []int, spent, moreSpent, units, moreUnits int) bool {
			before := stateWith(itemsFrom(base), spent, units)
			after := stateWith(append(itemsFrom(base), itemsFrom(extra)...), spent+moreSpent, units+moreUnits)
			for _, req := range fixtureTrees {
				if IsSatisfied(req, before) && !IsSatisfied(req, after) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 6)),
		gen.SliceOf(gen.IntRange(0, 6)),
		gen.IntRange(0, 8),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// Match and IsSatisfied always agree.
func TestMatchAgreesWithIsSatisfied(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Match(ok) == IsSatisfied", prop.ForAll(
		func(items []int, spent, units int) bool {
			st := stateWith(itemsFrom(items), spent, units)
			for _, req := range fixtureTrees {
				_, ok := Match(req, st)
				if ok != IsSatisfied(req, st) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 6)),
		gen.IntRange(0, 8),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
