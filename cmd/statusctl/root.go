package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "statusctl",
	Short: "Update a shared status document from the command line",
	Long: `statusctl mutates a single JSON status document stored in a remote
Git-hosted repository, so multiple independent callers (people, agents,
cron jobs) can update a shared dashboard without direct file access.

Writes use optimistic concurrency: the document is fetched with its
revision token, mutated locally, and written back only if the remote is
unchanged. On a conflict the mutation is retried against fresh state.

With --notion, task changes are additionally mirrored to a Notion
database. The mirror is best-effort: its failures are warnings and
never undo the primary write.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "schedule", Title: "Schedule Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)

	rootCmd.PersistentFlags().Bool("notion", false, "Mirror task changes to the Notion database")
	rootCmd.PersistentFlags().String("by", "", "Attributed actor (default: user@host)")
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().String("credentials", "", "Credentials file path (default: ~/.config/statusctl/credentials.json)")
}

// Execute runs the root command. Fatal errors exit with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
