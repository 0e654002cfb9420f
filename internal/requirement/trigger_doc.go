package requirement

import (
	"fmt"

	"github.com/danielpatrickdp/casefiles/internal/progress"
)

// #region trigger-doc
// TriggerDoc is the JSON form of a Trigger. Kind selects the variant; only
// the fields of that variant are populated.
type TriggerDoc struct {
	Kind      string       `json:"kind"` // "item" | "threshold" | "all_of" | "any_of"
	ItemID    string       `json:"item_id,omitempty"`
	Metric    string       `json:"metric,omitempty"`
	Threshold int          `json:"threshold,omitempty"`
	Actual    int          `json:"actual,omitempty"`
	Index     int          `json:"index,omitempty"`
	Branch    *TriggerDoc  `json:"branch,omitempty"`
	Branches  []TriggerDoc `json:"branches,omitempty"`
}

const (
	kindItem      = "item"
	kindThreshold = "threshold"
	kindAllOf     = "all_of"
	kindAnyOf     = "any_of"
)

// EncodeTrigger converts a Trigger into its document form.
func EncodeTrigger(tr Trigger) (TriggerDoc, error) {
	switch t := tr.(type) {
	case ItemTrigger:
		return TriggerDoc{Kind: kindItem, ItemID: t.ItemID}, nil
	case ThresholdTrigger:
		return TriggerDoc{Kind: kindThreshold, Metric: string(t.Metric), Threshold: t.Threshold, Actual: t.Actual}, nil
	case AllOfTrigger:
		doc := TriggerDoc{Kind: kindAllOf, Branches: make([]TriggerDoc, 0, len(t.Branches))}
		for _, b := range t.Branches {
			bd, err := EncodeTrigger(b)
			if err != nil {
				return TriggerDoc{}, err
			}
			doc.Branches = append(doc.Branches, bd)
		}
		return doc, nil
	case AnyOfTrigger:
		bd, err := EncodeTrigger(t.Branch)
		if err != nil {
			return TriggerDoc{}, err
		}
		return TriggerDoc{Kind: kindAnyOf, Index: t.Index, Branch: &bd}, nil
	}
	return TriggerDoc{}, fmt.Errorf("encode trigger: unsupported type %T", tr)
}

// DecodeTrigger converts a document back into a Trigger.
func DecodeTrigger(doc TriggerDoc) (Trigger, error) {
	switch doc.Kind {
	case kindItem:
		return ItemTrigger{ItemID: doc.ItemID}, nil
	case kindThreshold:
		m, ok := progress.ParseMetric(doc.Metric)
		if !ok {
			return nil, fmt.Errorf("decode trigger: unknown metric %q", doc.Metric)
		}
		return ThresholdTrigger{Metric: m, Threshold: doc.Threshold, Actual: doc.Actual}, nil
	case kindAllOf:
		branches := make([]Trigger, 0, len(doc.Branches))
		for _, bd := range doc.Branches {
			b, err := DecodeTrigger(bd)
			if err != nil {
				return nil, err
			}
			branches = append(branches, b)
		}
		return AllOfTrigger{Branches: branches}, nil
	case kindAnyOf:
		if doc.Branch == nil {
			return nil, fmt.Errorf("decode trigger: any_of without branch")
		}
		b, err := DecodeTrigger(*doc.Branch)
		if err != nil {
			return nil, err
		}
		return AnyOfTrigger{Index: doc.Index, Branch: b}, nil
	}
	return nil, fmt.Errorf("decode trigger: unknown kind %q", doc.Kind)
}

// #endregion trigger-doc
