package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcpcli %s\n", displayVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n  built:  %s\n  go:     %s\n", commit, date, runtime.Version())
		},
	}
}

// displayVersion returns a formatted version string, e.g. "v0.3.1 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}
