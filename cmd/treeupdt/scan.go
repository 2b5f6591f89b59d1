package main

import (
	"github.com/spf13/cobra"

	"github.com/rios0rios0/treeupdt/config"
)

var (
	filterFileType string
	filterName     string
	filterSource   string
	filterStrategy string
)

//nolint:exhaustruct // Minimal Command initialization with required fields only
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Discover version declarations in manifest files",
	Long: `Walk the tree rooted at path (default: current directory) and list every
version declaration found in Nix, Cargo, go.mod and package.json manifests,
after applying the configuration layers and filters.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	addFilterFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterFileType, "file-type", "",
		"Only declarations from this manifest type (nix, cargo, npm, go)")
	cmd.Flags().StringVar(&filterName, "name", "",
		"Only declarations whose name matches this regular expression")
	cmd.Flags().StringVar(&filterSource, "source", "",
		"Only declarations with this source type (github, npm, crates, git)")
	cmd.Flags().StringVar(&filterStrategy, "strategy", "",
		"Only declarations with this update strategy")
}

func filterOptions() config.FilterOptions {
	return config.FilterOptions{
		FileType:       filterFileType,
		NamePattern:    filterName,
		SourceType:     filterSource,
		UpdateStrategy: filterStrategy,
	}
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runScan(_ *cobra.Command, args []string) error {
	service, err := injectService(cfgPath, true)
	if err != nil {
		return err
	}

	result, err := service.Scan(rootArg(args), filterOptions())
	if err != nil {
		return err
	}

	reportFailures(result.Failures)
	return renderDeclarations(result.Declarations)
}
