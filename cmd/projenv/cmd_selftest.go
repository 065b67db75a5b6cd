package main

import (
	"github.com/spf13/cobra"

	"github.com/projenv-dev/projenv/internal/selftest"
)

// newCmdSelftest returns the command that runs the internal scenario checks.
// Progress goes to stderr; the first failed expectation aborts the run and
// the process exits non-zero.
func newCmdSelftest() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run internal property and scenario checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return selftest.Run(cmd.Context())
		},
	}
}
