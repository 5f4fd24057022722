package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/config"
	"github.com/statusdash/statusctl/internal/history"
	"github.com/statusdash/statusctl/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "advanced",
	Short:   "List recent mutations made from this machine",
	Long: `List recent mutations recorded in the local journal.

The journal only covers writes made from this machine; other callers'
writes appear in the document itself, not here.`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := history.Open(config.DefaultHistoryPath())
		if err != nil {
			fatal(err)
		}
		defer db.Close()

		entries, err := db.Recent(limit)
		if err != nil {
			fatal(err)
		}
		if len(entries) == 0 {
			fmt.Println("No journaled mutations.")
			return
		}

		for _, e := range entries {
			fmt.Printf("%s  %-15s %-16s %s  %s\n",
				ui.RenderDim(e.RecordedAt.Local().Format("2006-01-02 15:04")),
				e.Action,
				ui.RenderAccent(e.Subject),
				ui.RenderDim(shortRev(e.Revision)),
				e.Actor)
		}
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum entries to list")
	rootCmd.AddCommand(historyCmd)
}
