package progress

import "time"

// #region metric
// Metric names a numeric quantity derived from a State that threshold
// requirements can test.
type Metric string

const (
	MetricProgressUnits Metric = "progressUnits"
	MetricItemCount     Metric = "itemCount"
	MetricResourceSpent Metric = "resourceSpent"
)

// AllMetrics returns every metric the engine knows, in a stable order.
func AllMetrics() []Metric {
	return []Metric{MetricProgressUnits, MetricItemCount, MetricResourceSpent}
}

// ParseMetric maps a case-file metric name to a Metric.
func ParseMetric(name string) (Metric, bool) {
	for _, m := range AllMetrics() {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// #endregion metric

// #region parts
// Parts is the flat, exported form of a State used to build or persist one.
type Parts struct {
	VersionID     string
	ParentID      string
	Items         []string
	ResourceSpent int
	ProgressUnits int
	Focus         *string
	CreatedAt     time.Time
}

// #endregion parts

// #region spend
// Spend records resource points paid during play. ItemID is empty when the
// spend turned up nothing.
type Spend struct {
	ItemID string    `json:"item_id,omitempty"`
	Points int       `json:"points"`
	At     time.Time `json:"at"`
}

// #endregion spend
