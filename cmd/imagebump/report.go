package main

import (
	"fmt"

	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/obentoo/imagebump/internal/common/output"
)

// displayPlan prints the pending updates and the release they lead to
func displayPlan(plan *autoupdate.Plan) {
	updates := plan.Ledger.Updates()
	if len(updates) == 0 {
		output.PrintInfo("No updates available")
		return
	}

	fmt.Fprintln(output.Stdout)
	output.Header.Fprintln(output.Stdout, "Pending Updates")
	fmt.Fprintln(output.Stdout)

	counts := map[autoupdate.Classification]int{}
	for _, u := range updates {
		counts[u.Classification]++
		fmt.Fprintf(output.Stdout, "  %s %s %s\n",
			output.FormatClassification(u.Classification.String()),
			output.Sprint(output.Item, u.Name),
			output.FormatChange(u.CurrentVersion, u.NewVersion))
	}

	fmt.Fprintln(output.Stdout)
	fmt.Fprintf(output.Stdout, "  %d explicit, %d implicit, %d hidden\n",
		counts[autoupdate.Explicit], counts[autoupdate.Implicit], counts[autoupdate.Hidden])
	if plan.Version != "" {
		fmt.Fprintf(output.Stdout, "  release %s\n", output.FormatChange(plan.Release, output.Sprint(output.Tag, plan.Version)))
	}
	fmt.Fprintln(output.Stdout)
}
