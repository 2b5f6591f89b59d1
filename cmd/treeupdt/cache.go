package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/treeupdt/infrastructure/cache"
)

//nolint:exhaustruct // Minimal Command initialization with required fields only
var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove all cached version lookups",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := cache.NewStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}
