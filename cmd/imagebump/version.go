package main

import (
	"fmt"

	"github.com/obentoo/imagebump/internal/common/output"
	"github.com/obentoo/imagebump/internal/common/version"
	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(output.Stdout, version.Short())
			return
		}
		fmt.Fprintln(output.Stdout, version.Info())
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Print only the version")
	rootCmd.AddCommand(versionCmd)
}
