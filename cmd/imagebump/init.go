package main

import (
	"fmt"
	"os"

	"github.com/obentoo/imagebump/internal/common/config"
	"github.com/obentoo/imagebump/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	initUser   string
	initEmail  string
	initRemote string
	initEngine string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the user configuration file",
	Long: `Write ~/.config/imagebump/config.yaml with the built-in defaults and the
given git identity, remote and container engine.

Examples:
  imagebump init --user "Release Bot" --email bot@example.com
  imagebump init --engine podman --force    Overwrite an existing config`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initUser, "user", "", "Git user name for release commits")
	initCmd.Flags().StringVar(&initEmail, "email", "", "Git email for release commits")
	initCmd.Flags().StringVar(&initRemote, "remote", config.DefaultRemote, "Remote releases are pushed to")
	initCmd.Flags().StringVar(&initEngine, "engine", config.DefaultEngine, "Container engine binary")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%w: %s (use --force to overwrite)", config.ErrConfigExists, path)
	}

	cfg := config.Default()
	cfg.Git.User = initUser
	cfg.Git.Email = initEmail
	if initRemote != "" {
		cfg.Git.Remote = initRemote
	}
	if initEngine != "" {
		cfg.Container.Engine = initEngine
	}

	if cfg.Git.User == "" || cfg.Git.Email == "" {
		if user, email, err := cfg.GetGitUser(); err == nil {
			output.PrintInfo("Using git identity from ~/.gitconfig: %s <%s>", user, email)
		} else {
			output.PrintWarning("No git identity configured; release commits will use the repository's")
		}
	}

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	output.PrintSuccess("Configuration saved to %s", path)
	return nil
}
