// Package requirement defines unlock requirement trees and evaluates them
// against a progress snapshot.
package requirement

import "github.com/danielpatrickdp/casefiles/internal/progress"

// #region requirement
// Requirement is a closed set of variants: ItemCollected, ThresholdMet,
// AllOf and AnyOf. The unexported marker keeps other packages from adding
// variants, so every switch over a Requirement in this package is exhaustive.
type Requirement interface {
	isRequirement()
}

// ItemCollected is satisfied once ItemID is in the collected set.
type ItemCollected struct {
	ItemID string
}

// ThresholdMet is satisfied when Metric has reached Threshold (inclusive).
type ThresholdMet struct {
	Metric    progress.Metric
	Threshold int
}

// AllOf is satisfied when every sub-requirement is. An empty AllOf is
// satisfied.
type AllOf struct {
	Reqs []Requirement
}

// AnyOf is satisfied when at least one sub-requirement is. An empty AnyOf is
// never satisfied.
type AnyOf struct {
	Reqs []Requirement
}

func (ItemCollected) isRequirement() {}
func (ThresholdMet) isRequirement()  {}
func (AllOf) isRequirement()         {}
func (AnyOf) isRequirement()         {}

// Item is shorthand for ItemCollected{ItemID: id}.
func Item(id string) Requirement { return ItemCollected{ItemID: id} }

// Threshold is shorthand for ThresholdMet{Metric: m, Threshold: v}.
func Threshold(m progress.Metric, v int) Requirement {
	return ThresholdMet{Metric: m, Threshold: v}
}

// All is shorthand for AllOf{Reqs: reqs}.
func All(reqs ...Requirement) Requirement { return AllOf{Reqs: reqs} }

// Any is shorthand for AnyOf{Reqs: reqs}.
func Any(reqs ...Requirement) Requirement { return AnyOf{Reqs: reqs} }

// #endregion requirement

// #region trigger
// Trigger records which part of a requirement tree was satisfied and the
// values observed at the time. It mirrors the Requirement variants.
type Trigger interface {
	isTrigger()
}

// ItemTrigger reports a satisfied ItemCollected.
type ItemTrigger struct {
	ItemID string
}

// ThresholdTrigger reports a satisfied ThresholdMet with the observed value.
type ThresholdTrigger struct {
	Metric    progress.Metric
	Threshold int
	Actual    int
}

// AllOfTrigger reports a satisfied AllOf; Branches holds one trigger per
// sub-requirement, in declaration order.
type AllOfTrigger struct {
	Branches []Trigger
}

// AnyOfTrigger reports the first satisfied branch of an AnyOf.
type AnyOfTrigger struct {
	Index  int
	Branch Trigger
}

func (ItemTrigger) isTrigger()      {}
func (ThresholdTrigger) isTrigger() {}
func (AllOfTrigger) isTrigger()     {}
func (AnyOfTrigger) isTrigger()     {}

// #endregion trigger
