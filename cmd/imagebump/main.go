package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/obentoo/imagebump/internal/common/logger"
	"github.com/obentoo/imagebump/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
	logFile bool
)

var rootCmd = &cobra.Command{
	Use:   "imagebump",
	Short: "Container image update engine",
	Long: `Detects upstream drift of the dependencies pinned in a container build
manifest, patches the manifest, and commits, tags and pushes the next release.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor || !output.IsTerminal() {
			output.NoColor()
		}
		if logFile {
			return logger.Default().EnableFileLogging()
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Also append messages to the state log file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Default().Close()
	if err != nil {
		output.PrintError("%v", err)
	}
	os.Exit(autoupdate.ExitCode(err))
}
