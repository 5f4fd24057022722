package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/mutate"
	"github.com/statusdash/statusctl/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: "tasks",
	Short:   "Add a new task",
	Long: `Add a new task to the status document.

The task starts in waiting state with zero progress. Adding an id that
already exists is an error.

Example:
  statusctl add --id deploy-api --title "Deploy the API" --category infra`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")
		title, _ := cmd.Flags().GetString("title")
		category, _ := cmd.Flags().GetString("category")
		note, _ := cmd.Flags().GetString("note")

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), mutate.Add{
			ID:       id,
			Title:    title,
			Category: category,
			Note:     note,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Added task %s (revision %s)\n", ui.RenderAccent(id), ui.RenderDim(shortRev(res.Revision)))
	},
}

var updateCmd = &cobra.Command{
	Use:     "update",
	GroupID: "tasks",
	Short:   "Update fields of an existing task",
	Long: `Update an existing task. Only the flags you pass are applied; other
fields keep their current values.

The first transition into in_progress records the task's start time.
Later status changes never overwrite it.

Example:
  statusctl update --id deploy-api --status in_progress --progress 40`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")

		c := mutate.Update{ID: id}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			c.Title = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			c.Status = &v
		}
		if cmd.Flags().Changed("category") {
			v, _ := cmd.Flags().GetString("category")
			c.Category = &v
		}
		if cmd.Flags().Changed("note") {
			v, _ := cmd.Flags().GetString("note")
			c.Note = &v
		}
		if cmd.Flags().Changed("progress") {
			v, _ := cmd.Flags().GetInt("progress")
			c.Progress = &v
		}

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), c)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Updated task %s (revision %s)\n", ui.RenderAccent(id), ui.RenderDim(shortRev(res.Revision)))
	},
}

var doneCmd = &cobra.Command{
	Use:     "done",
	GroupID: "tasks",
	Short:   "Mark a task done",
	Long: `Mark a task done. Status becomes "done" and progress 100 regardless
of their previous values.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), mutate.Done{ID: id})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Marked task %s done (revision %s)\n", ui.RenderAccent(id), ui.RenderDim(shortRev(res.Revision)))
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove",
	GroupID: "tasks",
	Short:   "Remove a task",
	Long: `Remove a task from the status document. With --notion the mirror
record is archived (soft-deleted), not destroyed.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), mutate.Remove{ID: id})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Removed task %s (revision %s)\n", ui.RenderAccent(id), ui.RenderDim(shortRev(res.Revision)))
	},
}

func shortRev(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

func init() {
	addCmd.Flags().String("id", "", "Task id (required)")
	addCmd.Flags().String("title", "", "Task title (required)")
	addCmd.Flags().String("category", "general", "Task category")
	addCmd.Flags().String("note", "", "Free-form note")
	_ = addCmd.MarkFlagRequired("id")
	_ = addCmd.MarkFlagRequired("title")

	updateCmd.Flags().String("id", "", "Task id (required)")
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("status", "", "New status (waiting, in_progress, done, blocked, or any non-empty value)")
	updateCmd.Flags().String("category", "", "New category")
	updateCmd.Flags().String("note", "", "New note")
	updateCmd.Flags().Int("progress", 0, "New progress (0-100 by convention)")
	_ = updateCmd.MarkFlagRequired("id")

	doneCmd.Flags().String("id", "", "Task id (required)")
	_ = doneCmd.MarkFlagRequired("id")

	removeCmd.Flags().String("id", "", "Task id (required)")
	_ = removeCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(addCmd, updateCmd, doneCmd, removeCmd)
}
