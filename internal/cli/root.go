package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the dedupnorris command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dedupnorris",
		Short: "Find and clean up duplicate files",
		Long: `dedupnorris finds files with identical content across folders,
keeps one principal copy of each and lists, quarantines or removes the rest.
Every run writes a CSV audit log that can be edited and replayed with
"dedupnorris revert".`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewFindCommand())
	rootCmd.AddCommand(NewRevertCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
