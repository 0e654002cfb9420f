package casedata

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region file-types

type caseFile struct {
	ID             string              `yaml:"id"`
	Title          string              `yaml:"title"`
	ResourceBudget int                 `yaml:"resource_budget"`
	Metrics        []string            `yaml:"metrics"`
	Solution       string              `yaml:"solution"`
	Evidence       []evidenceNode      `yaml:"evidence"`
	Hypotheses     []hypothesisNode    `yaml:"hypotheses"`
	Contradictions []contradictionNode `yaml:"contradictions"`
}

type evidenceNode struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type hypothesisNode struct {
	ID       string           `yaml:"id"`
	Tier     int              `yaml:"tier"`
	Title    string           `yaml:"title"`
	Requires *requirementNode `yaml:"requires"`
}

// requirementNode sets exactly one of its fields. Composites are pointers so
// an explicit empty list can be told apart from an absent key.
type requirementNode struct {
	Item      string             `yaml:"item"`
	Threshold *thresholdNode     `yaml:"threshold"`
	AllOf     *[]requirementNode `yaml:"all_of"`
	AnyOf     *[]requirementNode `yaml:"any_of"`
}

type thresholdNode struct {
	Metric string `yaml:"metric"`
	Value  int    `yaml:"value"`
}

type contradictionNode struct {
	ID          string   `yaml:"id"`
	Evidence    []string `yaml:"evidence"`
	Description string   `yaml:"description"`
}

// #endregion file-types

// #region load

// Load reads and validates a YAML case file.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML case document. Any malformed content
// yields one or more *errs.ConfigurationError joined together.
func Parse(data []byte) (*Case, error) {
	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse case yaml: %w", err)
	}

	var problems []error
	c := &Case{
		ID:             f.ID,
		Title:          f.Title,
		ResourceBudget: f.ResourceBudget,
		Solution:       f.Solution,
	}

	if len(f.Metrics) == 0 {
		c.Metrics = progress.AllMetrics()
	}
	for _, name := range f.Metrics {
		m, ok := progress.ParseMetric(name)
		if !ok {
			problems = append(problems, errs.Configf("case "+f.ID, "unknown metric %q", name))
			continue
		}
		c.Metrics = append(c.Metrics, m)
	}

	for _, e := range f.Evidence {
		c.Evidence = append(c.Evidence, Evidence{ID: e.ID, Name: e.Name, Description: e.Description})
	}

	for _, h := range f.Hypotheses {
		item := GatedItem{ID: h.ID, Tier: Tier(h.Tier), Title: h.Title}
		if h.Requires != nil {
			req, err := h.Requires.build("hypothesis " + h.ID)
			if err != nil {
				problems = append(problems, err)
				continue
			}
			item.Requires = req
		}
		c.Hypotheses = append(c.Hypotheses, item)
	}

	for _, d := range f.Contradictions {
		def := ContradictionDef{ID: d.ID, Description: d.Description}
		if len(d.Evidence) != 2 {
			problems = append(problems, errs.Configf("contradiction "+d.ID, "expected 2 evidence ids, got %d", len(d.Evidence)))
			continue
		}
		def.Evidence = [2]string{d.Evidence[0], d.Evidence[1]}
		c.Contradictions = append(c.Contradictions, def)
	}

	problems = append(problems, Validate(c))
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return c, nil
}

// #endregion load

// #region build-requirement

func (n *requirementNode) build(subject string) (requirement.Requirement, error) {
	set := 0
	if n.Item != "" {
		set++
	}
	if n.Threshold != nil {
		set++
	}
	if n.AllOf != nil {
		set++
	}
	if n.AnyOf != nil {
		set++
	}
	if set != 1 {
		return nil, errs.Configf(subject, "requirement node must set exactly one of item, threshold, all_of, any_of (got %d)", set)
	}

	switch {
	case n.Item != "":
		return requirement.Item(n.Item), nil
	case n.Threshold != nil:
		m, ok := progress.ParseMetric(n.Threshold.Metric)
		if !ok {
			return nil, errs.Configf(subject, "unknown metric %q", n.Threshold.Metric)
		}
		return requirement.Threshold(m, n.Threshold.Value), nil
	case n.AllOf != nil:
		reqs, err := buildAll(subject, *n.AllOf)
		if err != nil {
			return nil, err
		}
		return requirement.AllOf{Reqs: reqs}, nil
	default:
		reqs, err := buildAll(subject, *n.AnyOf)
		if err != nil {
			return nil, err
		}
		return requirement.AnyOf{Reqs: reqs}, nil
	}
}

func buildAll(subject string, nodes []requirementNode) ([]requirement.Requirement, error) {
	reqs := make([]requirement.Requirement, 0, len(nodes))
	for i := range nodes {
		r, err := nodes[i].build(subject)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// #endregion build-requirement
