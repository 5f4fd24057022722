package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/mutate"
	"github.com/statusdash/statusctl/internal/ui"
)

var timeOfDayRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// normalizeTime accepts a "HH:MM" string as-is and otherwise runs the
// value through a natural-language parser, so "--time '5:30 pm'" and
// "--time 17:30" mean the same entry.
func normalizeTime(value string) (string, error) {
	if timeOfDayRe.MatchString(value) {
		// Canonicalize "9:30" to "09:30" so string ordering matches
		// time ordering.
		t, err := time.Parse("15:04", value)
		if err == nil {
			return t.Format("15:04"), nil
		}
		t, err = time.Parse("3:04", value)
		if err != nil {
			return "", fmt.Errorf("invalid time %q: %w", value, err)
		}
		return t.Format("15:04"), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(value, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse time %q: %w", value, err)
	}
	if result == nil {
		return "", fmt.Errorf("could not understand time %q (use HH:MM)", value)
	}
	return result.Time.Format("15:04"), nil
}

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	GroupID: "schedule",
	Short:   "Add or replace a schedule entry",
	Long: `Add a schedule entry, or replace the label of an existing entry with
the same time. The schedule stays sorted by time.

The --time flag takes "HH:MM" directly, or natural language:
  statusctl schedule --time 09:30 --label "standup"
  statusctl schedule --time "5:30 pm" --label "review"`,
	Run: func(cmd *cobra.Command, args []string) {
		rawTime, _ := cmd.Flags().GetString("time")
		label, _ := cmd.Flags().GetString("label")

		timeOfDay, err := normalizeTime(rawTime)
		if err != nil {
			fatal(err)
		}

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), mutate.Schedule{Time: timeOfDay, Label: label})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Scheduled %s %s (revision %s)\n", ui.RenderAccent(timeOfDay), label, ui.RenderDim(shortRev(res.Revision)))
	},
}

var removeScheduleCmd = &cobra.Command{
	Use:     "remove-schedule",
	GroupID: "schedule",
	Short:   "Remove a schedule entry",
	Run: func(cmd *cobra.Command, args []string) {
		rawTime, _ := cmd.Flags().GetString("time")

		timeOfDay, err := normalizeTime(rawTime)
		if err != nil {
			fatal(err)
		}

		a, err := newApp(cmd)
		if err != nil {
			fatal(err)
		}

		res, err := a.run(context.Background(), mutate.RemoveSchedule{Time: timeOfDay})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Removed schedule entry %s (revision %s)\n", ui.RenderAccent(timeOfDay), ui.RenderDim(shortRev(res.Revision)))
	},
}

func init() {
	scheduleCmd.Flags().String("time", "", `Time of day, "HH:MM" or natural language (required)`)
	scheduleCmd.Flags().String("label", "", "Entry label (required)")
	_ = scheduleCmd.MarkFlagRequired("time")
	_ = scheduleCmd.MarkFlagRequired("label")

	removeScheduleCmd.Flags().String("time", "", `Time of day of the entry to remove (required)`)
	_ = removeScheduleCmd.MarkFlagRequired("time")

	rootCmd.AddCommand(scheduleCmd, removeScheduleCmd)
}
