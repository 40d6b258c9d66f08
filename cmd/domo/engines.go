package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewEnginesCmd creates the engines command.
func NewEnginesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List the available verifier engines",
		Long: `List the built-in verifier engines and the custom engines declared in the
configuration file, with the query URL template each of them uses.`,
		Args: cobra.NoArgs,
		RunE: runEnginesCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .domo in current dir, XDG config dir, or home dir)")

	return cmd
}

// runEnginesCmd executes the engines command.
func runEnginesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOnly(cmd)
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Name", "Service", "Query URL")
	for _, name := range registry.Names() {
		engine, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		if err := table.Append([]string{engine.Name, engine.Service, engine.QueryURLTemplate}); err != nil {
			return err
		}
	}
	return table.Render()
}
