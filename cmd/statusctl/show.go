package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show",
	GroupID: "tasks",
	Short:   "Show the current status document",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		doc, revision, err := a.store.Fetch(context.Background())
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s  %s\n", ui.RenderDim("revision "+shortRev(revision)),
			ui.RenderDim(fmt.Sprintf("updated %s by %s", doc.Meta.UpdatedAt.Format("2006-01-02 15:04"), doc.Meta.UpdatedBy)))

		if len(doc.Tasks) == 0 {
			fmt.Println("\nNo tasks.")
		} else {
			fmt.Println()
			for _, t := range doc.Tasks {
				fmt.Printf("  %-16s %-12s %3d%%  %s", ui.RenderAccent(t.ID), ui.RenderStatus(t.Status), t.Progress, t.Title)
				if t.Note != "" {
					fmt.Printf("  %s", ui.RenderDim("("+t.Note+")"))
				}
				fmt.Println()
			}
		}

		if len(doc.Schedule) > 0 {
			fmt.Println()
			for _, e := range doc.Schedule {
				fmt.Printf("  %s  %s\n", ui.RenderAccent(e.Time), e.Label)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
