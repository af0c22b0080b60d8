package main

import (
	"fmt"

	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/obentoo/imagebump/internal/common/output"
	"github.com/spf13/cobra"
)

var nextVersionCmd = &cobra.Command{
	Use:   "next-version",
	Short: "Print the release the pending updates lead to",
	Long: `Print the next release version. Without pending updates the current
release is printed and the command fails with the no-updates exit code.`,
	Args: cobra.NoArgs,
	RunE: runNextVersion,
}

func init() {
	rootCmd.AddCommand(nextVersionCmd)
}

func runNextVersion(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}

	updater := s.updater()
	plan, err := updater.Plan(cmd.Context())
	if err != nil {
		return err
	}

	if plan.Version == "" {
		current, err := updater.CurrentRelease()
		if err != nil {
			return err
		}
		fmt.Fprintln(output.Stdout, current)
		return autoupdate.ErrNoUpdates
	}
	fmt.Fprintln(output.Stdout, plan.Version)
	return nil
}
