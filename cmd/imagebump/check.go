package main

import (
	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/spf13/cobra"
)

// checkFailOnNoUpdates exits with ErrNoUpdates when nothing drifted
var checkFailOnNoUpdates bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List pending updates without changing anything",
	Long: `Resolve every check of the project and print the pending updates with
their classification and the release they would produce.

Examples:
  imagebump check
  imagebump check --fail-on-no-updates    Exit 2 when nothing drifted`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFailOnNoUpdates, "fail-on-no-updates", false, "Fail when no update is available")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}

	plan, err := s.updater().Plan(cmd.Context())
	if err != nil {
		return err
	}
	displayPlan(plan)

	if plan.Ledger.Len() == 0 && checkFailOnNoUpdates {
		return autoupdate.ErrNoUpdates
	}
	return nil
}
