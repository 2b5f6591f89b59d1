package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/treeupdt/config"
)

var forceInit bool

//nolint:exhaustruct // Minimal Command initialization with required fields only
var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write an annotated example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := ".treeupdt.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		if err := os.WriteFile(path, []byte(config.ExampleConfig), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false,
		"Overwrite an existing configuration file")
	rootCmd.AddCommand(initConfigCmd)
}
