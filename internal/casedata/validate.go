package casedata

import (
	"errors"

	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region validate
// Validate checks every structural rule of a case and returns all problems
// found, joined. It runs once at load; nothing in the engine re-checks case
// data during play.
func Validate(c *Case) error {
	var problems []error
	caseSubject := "case " + c.ID

	if c.ID == "" {
		problems = append(problems, errs.Configf("case", "missing id"))
	}
	if c.ResourceBudget < 0 {
		problems = append(problems, errs.Configf(caseSubject, "negative resource budget %d", c.ResourceBudget))
	}

	metrics := make(map[progress.Metric]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if _, ok := progress.ParseMetric(string(m)); !ok {
			problems = append(problems, errs.Configf(caseSubject, "unknown metric %q", m))
			continue
		}
		metrics[m] = true
	}

	items := make(map[string]bool, len(c.Evidence))
	for _, e := range c.Evidence {
		if e.ID == "" {
			problems = append(problems, errs.Configf(caseSubject, "evidence with empty id"))
			continue
		}
		if items[e.ID] {
			problems = append(problems, errs.Configf("evidence "+e.ID, "duplicate id"))
		}
		items[e.ID] = true
	}

	seen := make(map[string]bool, len(c.Hypotheses))
	for _, h := range c.Hypotheses {
		subject := "hypothesis " + h.ID
		if h.ID == "" {
			problems = append(problems, errs.Configf(caseSubject, "hypothesis with empty id"))
			continue
		}
		if seen[h.ID] {
			problems = append(problems, errs.Configf(subject, "duplicate id"))
		}
		seen[h.ID] = true

		switch h.Tier {
		case Tier1:
			if h.Requires != nil {
				problems = append(problems, errs.Configf(subject, "tier 1 item must not carry a requirement"))
			}
		case Tier2:
			if h.Requires == nil {
				problems = append(problems, errs.Configf(subject, "tier 2 item has no requirement"))
				continue
			}
			if err := requirement.Validate(subject, h.Requires, items, metrics); err != nil {
				problems = append(problems, err)
			}
		default:
			problems = append(problems, errs.Configf(subject, "invalid tier %d", h.Tier))
		}
	}

	if c.Solution != "" && !seen[c.Solution] {
		problems = append(problems, errs.Configf(caseSubject, "solution %q is not a hypothesis", c.Solution))
	}

	defs := make(map[string]bool, len(c.Contradictions))
	for _, d := range c.Contradictions {
		subject := "contradiction " + d.ID
		if d.ID == "" {
			problems = append(problems, errs.Configf(caseSubject, "contradiction with empty id"))
			continue
		}
		if defs[d.ID] {
			problems = append(problems, errs.Configf(subject, "duplicate id"))
		}
		defs[d.ID] = true
		for _, ev := range d.Evidence {
			if !items[ev] {
				problems = append(problems, errs.Configf(subject, "references undefined evidence %q", ev))
			}
		}
		if d.Evidence[0] == d.Evidence[1] {
			problems = append(problems, errs.Configf(subject, "pairs evidence %q with itself", d.Evidence[0]))
		}
	}

	return errors.Join(problems...)
}

// #endregion validate
