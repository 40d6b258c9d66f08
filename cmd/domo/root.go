package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for domo.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domo",
		Short: "Audit the Disallow entries of robots.txt",
		Long: `domo audits a website's robots.txt exclusion policy.

It collects the paths the site asks crawlers not to visit, requests each of
them to see which are publicly reachable, and can ask Bing, the Wayback
Machine, archive.today or custom engines whether they have been indexed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewEnginesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errAuditFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
