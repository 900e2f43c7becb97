package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set through -ldflags at release time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "sbomrisk %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
