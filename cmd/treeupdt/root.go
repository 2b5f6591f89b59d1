package main

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	output  string
)

//nolint:exhaustruct // Minimal Command initialization with required fields only
var rootCmd = &cobra.Command{
	Use:   "treeupdt",
	Short: "Dependency manifest discovery and mutation engine",
	Long: `A CLI tool that walks a directory tree, discovers version declarations in
Nix flakes, Cargo.toml, go.mod and package.json manifests, checks upstream
sources for newer versions, and rewrites the manifests in place.

Inline "treeupdt:" comment directives and a layered YAML configuration
control which declarations are updated and how eagerly.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text",
		"Output format: text, json, yaml or paths")
}
