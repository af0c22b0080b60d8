package main

import (
	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/obentoo/imagebump/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	// updateNoConfirm skips the confirmation prompt
	updateNoConfirm bool
	// updateDryRun stops after the scan phase
	updateDryRun bool
	// updateFailOnNoUpdates exits with ErrNoUpdates when nothing drifted
	updateFailOnNoUpdates bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Patch the manifest and release when upstreams moved",
	Long: `Resolve every check of the project, then patch the manifest, commit,
tag and push the next release.

Examples:
  imagebump update                        Scan, confirm and release
  imagebump update --noconfirm            Release without prompting
  imagebump update --dry-run              Only show what would change
  imagebump update --fail-on-no-updates   Exit 2 when nothing drifted
  imagebump update -p images/app/.imagebump.toml`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateNoConfirm, "noconfirm", false, "Do not ask for confirmation")
	updateCmd.Flags().BoolVarP(&updateDryRun, "dry-run", "n", false, "Show pending updates without writing")
	updateCmd.Flags().BoolVar(&updateFailOnNoUpdates, "fail-on-no-updates", false, "Fail when no update is available")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}

	confirmer := stdinConfirmer()
	if updateNoConfirm {
		confirmer = autoupdate.NoConfirm{}
	}

	updater := s.updater(
		autoupdate.WithConfirmer(confirmer),
		autoupdate.WithDryRun(updateDryRun),
		autoupdate.WithFailOnNoUpdates(updateFailOnNoUpdates),
		autoupdate.WithReport(displayPlan),
	)

	result, err := updater.Run(cmd.Context())
	if err != nil {
		return err
	}

	switch {
	case result.Released:
		output.PrintSuccess("Released %s (%d declaration(s) patched)", result.Version, result.Patched)
	case updateDryRun && result.Version != "":
		output.PrintInfo("Dry-run mode - nothing written")
	}
	return nil
}
