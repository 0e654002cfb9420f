package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/logging"
	"github.com/danielpatrickdp/casefiles/internal/narration"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/session"
	"github.com/danielpatrickdp/casefiles/internal/store"
)

var (
	playCase    string
	playSession string
)

// #region command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Investigate a case interactively",
	Long: `Starts or resumes a session. Every action is saved as a snapshot and
logged, so a session can be resumed with --session and inspected later.
Type 'help' at the prompt for the command list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		client, closeClient, err := buildNarrationClient()
		if err != nil {
			return err
		}
		defer closeClient()

		p, err := openPlayer(st, playCase, playSession, client, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return p.run(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	playCmd.Flags().StringVar(&playCase, "case", "", "case YAML file (optional when resuming)")
	playCmd.Flags().StringVar(&playSession, "session", "", "session id to resume or create")
}

// #endregion command

// #region player
type player struct {
	engine   *session.Engine
	store    *store.Store
	narrator *narration.Narrator
	log      *zap.Logger
	out      io.Writer
	sess     session.Session
}

// openPlayer resumes sessionID if the store knows it, otherwise starts a new
// session on casePath.
func openPlayer(st *store.Store, casePath, sessionID string, client *narration.FallbackClient, out io.Writer) (*player, error) {
	var resumed *session.Session
	if sessionID != "" {
		sess, err := st.Load(sessionID)
		switch {
		case err == nil:
			resumed = &sess
			if casePath == "" {
				reg, err := st.Session(sessionID)
				if err != nil {
					return nil, err
				}
				casePath = reg.CasePath
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, err
		}
	}
	if casePath == "" {
		return nil, errors.New("--case is required for a new session")
	}

	c, err := casedata.Load(casePath)
	if err != nil {
		return nil, err
	}
	p := &player{
		engine:   session.NewEngine(c, logger),
		store:    st,
		narrator: narration.NewNarrator(c, client, logger),
		log:      logger.Named("play"),
		out:      out,
	}

	if resumed != nil {
		if resumed.CaseID != c.ID {
			return nil, fmt.Errorf("session %s belongs to case %s, not %s", sessionID, resumed.CaseID, c.ID)
		}
		p.sess = *resumed
		fmt.Fprintf(out, "Resumed session %s on %q.\n", p.sess.ID, c.Title)
		return p, nil
	}

	p.sess = p.engine.Start(sessionID)
	if _, err := st.CreateSession(p.sess, casePath); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "New session %s on %q.\n", p.sess.ID, c.Title)
	return p, nil
}

func (p *player) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(p.out, "Type 'help' for commands, 'quit' to exit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(p.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		if cmd.meta == "quit" {
			break
		}
		if err := p.dispatch(ctx, cmd); err != nil {
			return err
		}
	}
	fmt.Fprintln(p.out)
	return scanner.Err()
}

func (p *player) dispatch(ctx context.Context, cmd command) error {
	switch cmd.meta {
	case "help":
		fmt.Fprint(p.out, helpText)
		return nil
	case "status":
		p.printStatus()
		return nil
	case "review":
		p.printReview(p.engine.Review(p.sess))
		return nil
	case "undo":
		return p.undo()
	case "ack":
		if cmd.action.Target == "all" {
			pending := p.sess.History.Pending()
			if len(pending) == 0 {
				fmt.Fprintln(p.out, "Nothing to acknowledge.")
			}
			for _, ev := range pending {
				if err := p.apply(ctx, session.Acknowledge(ev.ID)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return p.apply(ctx, cmd.action)
}

// apply runs one action, persists it, logs it, and narrates what it fired.
// Only infrastructure failures are returned; rejected actions are printed.
func (p *player) apply(ctx context.Context, a session.Action) error {
	next, out, applyErr := p.engine.Apply(p.sess, a)

	var snapshotID string
	if out.Decision == "commit" {
		rec, err := p.store.Commit(next)
		if err != nil {
			return err
		}
		p.sess = next
		snapshotID = rec.SnapshotID
	} else {
		rec, err := p.store.Current(p.sess.ID)
		if err != nil {
			return err
		}
		snapshotID = rec.SnapshotID
	}

	entry, err := logging.EntryFor(p.sess.ID, snapshotID, a, out)
	if err != nil {
		return err
	}
	if err := logging.LogAction(p.store.DB(), entry); err != nil {
		p.log.Warn("action log write failed", zap.Error(err))
	}

	if applyErr != nil {
		fmt.Fprintf(p.out, "Not possible: %v\n", applyErr)
		return nil
	}
	if out.Decision == "no_op" {
		fmt.Fprintln(p.out, "Nothing new.")
		return nil
	}
	fmt.Fprintf(p.out, "OK: %s\n", out.Reason)
	for _, ev := range out.Unlocks {
		fmt.Fprintf(p.out, "* %s\n  [event %s]\n", p.narrator.Unlock(ctx, ev), ev.ID)
	}
	for _, d := range out.Discoveries {
		fmt.Fprintf(p.out, "! %s\n", p.narrator.Contradiction(ctx, d))
	}
	if a.Kind == session.ActionVerdict {
		report := p.engine.Review(p.sess)
		fmt.Fprintln(p.out, p.narrator.Verdict(ctx, a.Target, report))
		p.printReview(report)
	}
	return nil
}

func (p *player) undo() error {
	cur, err := p.store.Current(p.sess.ID)
	if err != nil {
		return err
	}
	if cur.ParentID == "" {
		fmt.Fprintln(p.out, "Nothing to undo.")
		return nil
	}
	if err := p.store.Rollback(p.sess.ID, cur.ParentID); err != nil {
		return err
	}
	sess, err := p.store.Load(p.sess.ID)
	if err != nil {
		return err
	}
	p.sess = sess
	p.log.Info("rolled back", zap.String("session_id", sess.ID), zap.String("snapshot_id", cur.ParentID))
	fmt.Fprintln(p.out, "Rolled back one step.")
	return nil
}

// #endregion player

// #region output
func (p *player) printStatus() {
	c := p.engine.Case()
	st := p.sess.State
	fmt.Fprintf(p.out, "Case %s: %s\n", c.ID, c.Title)
	fmt.Fprintf(p.out, "  evidence:  %s\n", joinOrDash(st.Items()))
	budget := "unlimited"
	if c.ResourceBudget > 0 {
		budget = strconv.Itoa(c.ResourceBudget)
	}
	fmt.Fprintf(p.out, "  resources: %d spent of %s | progress %d\n", st.ResourceSpent, budget, st.ProgressUnits)
	if f, ok := st.Focus(); ok {
		fmt.Fprintf(p.out, "  focus:     %s\n", f)
	}
	fmt.Fprintf(p.out, "  theories:  %s\n", joinOrDash(p.engine.Available(p.sess)))
	for _, ev := range p.sess.History.Pending() {
		fmt.Fprintf(p.out, "  new:       %s (ack %s)\n", ev.ItemID, ev.ID)
	}
	fmt.Fprintf(p.out, "  conflicts: %s unresolved of %d found\n",
		joinOrDash(p.sess.Ledger.Unresolved()), len(p.sess.Ledger.DiscoveredIDs()))
	if p.sess.Closed() {
		fmt.Fprintf(p.out, "  closed:    verdict %s\n", p.sess.Verdict.HypothesisID)
	}
}

func (p *player) printReview(r scoring.Report) {
	printReport(p.out, r)
}

func joinOrDash(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return strings.Join(xs, ", ")
}

// #endregion output

// #region parse
type command struct {
	meta   string
	action session.Action
}

const helpText = `Commands:
  collect <evidence> [cost]   examine evidence, paying cost resource points
  spend <points>              spend resources searching without a find
  progress <units>            record investigation progress
  focus [hypothesis]          set or clear the working theory
  ack <event|all>             acknowledge unlock notifications
  resolve <conflict> <text>   explain a contradiction
  verdict <hypothesis>        close the case
  status | review | undo | help | quit
`

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	verb, args := strings.ToLower(fields[0]), fields[1:]

	intArg := func(i int, name string) (int, error) {
		if len(args) <= i {
			return 0, fmt.Errorf("%s: missing %s", verb, name)
		}
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, fmt.Errorf("%s: %s must be a number", verb, name)
		}
		return n, nil
	}
	target := func(name string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("%s: missing %s", verb, name)
		}
		return args[0], nil
	}

	switch verb {
	case "help", "?":
		return command{meta: "help"}, nil
	case "status", "review", "undo":
		return command{meta: verb}, nil
	case "quit", "exit":
		return command{meta: "quit"}, nil
	case "collect":
		id, err := target("evidence id")
		if err != nil {
			return command{}, err
		}
		cost := 0
		if len(args) > 1 {
			if cost, err = intArg(1, "cost"); err != nil {
				return command{}, err
			}
		}
		return command{action: session.Collect(id, cost)}, nil
	case "spend":
		n, err := intArg(0, "points")
		if err != nil {
			return command{}, err
		}
		return command{action: session.Spend(n)}, nil
	case "progress":
		n, err := intArg(0, "units")
		if err != nil {
			return command{}, err
		}
		return command{action: session.Progress(n)}, nil
	case "focus":
		if len(args) == 0 {
			return command{action: session.Focus("")}, nil
		}
		return command{action: session.Focus(args[0])}, nil
	case "ack", "acknowledge":
		id, err := target("event id")
		if err != nil {
			return command{}, err
		}
		return command{meta: "ack", action: session.Acknowledge(id)}, nil
	case "resolve":
		if len(args) < 2 {
			return command{}, fmt.Errorf("resolve: usage resolve <conflict> <text>")
		}
		return command{action: session.Resolve(args[0], strings.Join(args[1:], " "))}, nil
	case "verdict", "accuse":
		id, err := target("hypothesis id")
		if err != nil {
			return command{}, err
		}
		return command{action: session.Verdict(id)}, nil
	}
	return command{}, fmt.Errorf("unknown command %q (try 'help')", verb)
}

// #endregion parse
