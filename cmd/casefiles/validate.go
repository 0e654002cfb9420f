package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
)

var errInvalidCase = errors.New("case validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <case.yaml>...",
	Short: "Check case files and list every problem found",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args)
	},
}

func runValidate(out io.Writer, paths []string) error {
	failed := false
	for _, path := range paths {
		c, err := casedata.Load(path)
		if err != nil {
			failed = true
			fmt.Fprintf(out, "%s: invalid\n", path)
			for _, p := range problems(err) {
				fmt.Fprintf(out, "  - %v\n", p)
			}
			continue
		}
		fmt.Fprintf(out, "%s: ok (%s, %d evidence, %d hypotheses, %d contradictions)\n",
			path, c.ID, len(c.Evidence), len(c.Hypotheses), len(c.Contradictions))
	}
	if failed {
		return errInvalidCase
	}
	return nil
}

// problems flattens errors.Join trees into their leaves.
func problems(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, problems(e)...)
		}
		return out
	}
	if inner := errors.Unwrap(err); inner != nil {
		if _, ok := inner.(interface{ Unwrap() []error }); ok {
			return problems(inner)
		}
	}
	return []error{err}
}
