package narration

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

// #region narrator
// Narrator writes the player-facing lines for one case. With a nil client,
// or when generation fails, it falls back to fixed text.
type Narrator struct {
	c      *casedata.Case
	client *FallbackClient
	log    *zap.Logger
}

func NewNarrator(c *casedata.Case, client *FallbackClient, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{c: c, client: client, log: logger.Named("narrator")}
}

// Unlock narrates a newly unlocked hypothesis.
func (n *Narrator) Unlock(ctx context.Context, ev unlock.Event) string {
	title := ev.ItemID
	if h, ok := n.c.Hypothesis(ev.ItemID); ok && h.Title != "" {
		title = h.Title
	}
	clues := n.names(requirement.TriggerItems(ev.Trigger))
	plain := fmt.Sprintf("New theory available: %s", title)
	if len(clues) > 0 {
		plain += fmt.Sprintf(" (prompted by %s)", strings.Join(clues, ", "))
	}

	prompt := fmt.Sprintf(
		"Case %q. The detective has just realised a new line of inquiry: %q. "+
			"It came from these clues: %s. Reached via: %s. Describe the moment of insight.",
		n.c.Title, title, listOrNone(clues), strings.Join(requirement.Leaves(ev.Trigger), ", "))
	return n.generate(ctx, prompt, plain)
}

// Contradiction narrates a newly discovered contradiction.
func (n *Narrator) Contradiction(ctx context.Context, d contradiction.Discovery) string {
	def, ok := n.c.Contradiction(d.ID)
	if !ok {
		return fmt.Sprintf("Contradiction %s discovered.", d.ID)
	}
	pair := n.names(def.Evidence[:])
	plain := fmt.Sprintf("Contradiction: %s and %s cannot both be true.", pair[0], pair[1])
	if def.Description != "" {
		plain += " " + def.Description
	}
	prompt := fmt.Sprintf(
		"Case %q. Two pieces of evidence clash: %q and %q. Author's note: %s. "+
			"Describe the detective noticing the conflict without resolving it.",
		n.c.Title, pair[0], pair[1], def.Description)
	return n.generate(ctx, prompt, plain)
}

// Verdict narrates the review of a closed case.
func (n *Narrator) Verdict(ctx context.Context, hypothesisID string, r scoring.Report) string {
	title := hypothesisID
	if h, ok := n.c.Hypothesis(hypothesisID); ok && h.Title != "" {
		title = h.Title
	}
	outcome := "incorrect"
	if r.TierDiscovery.Correct {
		outcome = "correct"
	}
	var scores []string
	for _, m := range r.Metrics {
		scores = append(scores, fmt.Sprintf("%s=%.2f", m.Name, m.Value))
	}
	plain := fmt.Sprintf("Verdict: %s (%s). Overall score %.2f.", title, outcome, r.Overall)
	prompt := fmt.Sprintf(
		"Case %q is closed. The detective accused: %q, which was %s. Scores: %s. "+
			"Give short in-character feedback on how the investigation was run.",
		n.c.Title, title, outcome, strings.Join(scores, ", "))
	return n.generate(ctx, prompt, plain)
}

func (n *Narrator) generate(ctx context.Context, prompt, plain string) string {
	if n.client == nil {
		return plain
	}
	res, err := n.client.Generate(ctx, prompt)
	if err != nil {
		n.log.Info("narration unavailable, using plain text", zap.Error(err))
		return plain
	}
	return res.Text
}

// #endregion narrator

// #region helpers
func (n *Narrator) names(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		for _, e := range n.c.Evidence {
			if e.ID == id && e.Name != "" {
				out[i] = e.Name
				break
			}
		}
	}
	return out
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "none in particular"
	}
	return strings.Join(xs, ", ")
}

// #endregion helpers
