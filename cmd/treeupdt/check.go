package main

import (
	"github.com/spf13/cobra"
)

var noCache bool

//nolint:exhaustruct // Minimal Command initialization with required fields only
var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Check upstream sources for available updates",
	Long: `Scan the tree rooted at path and query the upstream source of every
declaration for newer versions. Declarations that are pinned, disabled or
whose candidate version is ignored are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addFilterFlags(checkCmd)
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Bypass the version cache for this run")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	service, err := injectService(cfgPath, noCache)
	if err != nil {
		return err
	}

	candidates, failures, err := service.Check(cmd.Context(), rootArg(args), filterOptions())
	if err != nil {
		return err
	}

	reportFailures(failures)
	return renderCandidates(candidates)
}
