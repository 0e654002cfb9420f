package requirement

import (
	"errors"

	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
)

// #region validate
// Validate checks a requirement tree against the case's known item ids and
// permitted metrics. Every problem found is returned, joined; each one is an
// *errs.ConfigurationError naming subject.
func Validate(subject string, req Requirement, items map[string]bool, metrics map[progress.Metric]bool) error {
	if req == nil {
		return errs.Configf(subject, "requirement is missing")
	}
	var problems []error
	Walk(req, func(n Requirement) {
		switch r := n.(type) {
		case ItemCollected:
			if r.ItemID == "" {
				problems = append(problems, errs.Configf(subject, "item requirement has empty id"))
			} else if !items[r.ItemID] {
				problems = append(problems, errs.Configf(subject, "requirement references undefined item %q", r.ItemID))
			}
		case ThresholdMet:
			if !metrics[r.Metric] {
				problems = append(problems, errs.Configf(subject, "unknown metric %q", r.Metric))
			}
			if r.Threshold < 0 {
				problems = append(problems, errs.Configf(subject, "negative threshold %d for %s", r.Threshold, r.Metric))
			}
		case AllOf:
			problems = append(problems, checkChildren(subject, r.Reqs)...)
		case AnyOf:
			problems = append(problems, checkChildren(subject, r.Reqs)...)
		}
	})
	return errors.Join(problems...)
}

func checkChildren(subject string, reqs []Requirement) []error {
	var problems []error
	for i, sub := range reqs {
		if sub == nil {
			problems = append(problems, errs.Configf(subject, "branch %d is empty", i))
		}
	}
	return problems
}

// #endregion validate
