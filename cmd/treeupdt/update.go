package main

import (
	"github.com/spf13/cobra"
)

var updateRoot string

//nolint:exhaustruct // Minimal Command initialization with required fields only
var updateCmd = &cobra.Command{
	Use:   "update <target>...",
	Short: "Rewrite manifests to newer versions",
	Long: `Update one or more declarations in place. Targets name a declaration as
"path:name", "path:name@version" or a bare name; without an explicit version
the target version is resolved from the declaration's upstream source.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpdate,
}

func init() {
	addFilterFlags(updateCmd)
	updateCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Bypass the version cache for this run")
	updateCmd.Flags().StringVar(&updateRoot, "path", ".",
		"Root of the tree to scan for the targets")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	service, err := injectService(cfgPath, noCache)
	if err != nil {
		return err
	}

	applied, err := service.Update(cmd.Context(), updateRoot, args, filterOptions())
	if renderErr := renderResults(applied); renderErr != nil {
		return renderErr
	}
	return err
}
