package mutate

import (
	"fmt"
	"time"

	"github.com/statusdash/statusctl/internal/schema"
)

// Apply runs a command against the document in place. On success the
// document's attribution metadata is refreshed with the given actor and
// time. On failure the document must be considered dirty and discarded;
// the engine always re-fetches before retrying.
func Apply(doc *schema.Document, cmd Command, actor string, now time.Time) error {
	var err error
	switch c := cmd.(type) {
	case Add:
		err = applyAdd(doc, c, now)
	case Update:
		err = applyUpdate(doc, c, now)
	case Done:
		err = applyDone(doc, c, now)
	case Schedule:
		err = applySchedule(doc, c)
	case Remove:
		err = applyRemove(doc, c)
	case RemoveSchedule:
		err = applyRemoveSchedule(doc, c)
	default:
		err = fmt.Errorf("unknown command type %T", cmd)
	}
	if err != nil {
		return err
	}

	doc.Touch(actor, now)
	return nil
}

func applyAdd(doc *schema.Document, c Add, now time.Time) error {
	category := c.Category
	if category == "" {
		category = "general"
	}

	task := schema.Task{
		ID:        c.ID,
		Title:     c.Title,
		Status:    schema.StatusWaiting,
		Category:  category,
		StartedAt: nil,
		UpdatedAt: now,
		Progress:  0,
		Note:      c.Note,
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if doc.FindTask(c.ID) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}

	doc.Tasks = append(doc.Tasks, task)
	return nil
}

func applyUpdate(doc *schema.Document, c Update, now time.Time) error {
	task := doc.FindTask(c.ID)
	if task == nil {
		return fmt.Errorf("task %q %w", c.ID, ErrNotFound)
	}

	if c.Status != nil {
		// First transition into in_progress stamps the start time;
		// later transitions never overwrite it.
		if *c.Status == schema.StatusInProgress && task.StartedAt == nil {
			started := now
			task.StartedAt = &started
		}
		task.Status = *c.Status
	}
	if c.Title != nil {
		task.Title = *c.Title
	}
	if c.Category != nil {
		if *c.Category == "" {
			return fmt.Errorf("category must not be empty")
		}
		task.Category = *c.Category
	}
	if c.Note != nil {
		task.Note = *c.Note
	}
	if c.Progress != nil {
		task.Progress = *c.Progress
	}
	if err := task.Validate(); err != nil {
		return err
	}

	task.UpdatedAt = now
	return nil
}

func applyDone(doc *schema.Document, c Done, now time.Time) error {
	task := doc.FindTask(c.ID)
	if task == nil {
		return fmt.Errorf("task %q %w", c.ID, ErrNotFound)
	}
	task.Status = schema.StatusDone
	task.Progress = 100
	task.UpdatedAt = now
	return nil
}

func applySchedule(doc *schema.Document, c Schedule) error {
	if c.Time == "" {
		return fmt.Errorf("schedule time must not be empty")
	}
	if c.Label == "" {
		return fmt.Errorf("schedule label must not be empty")
	}
	doc.UpsertSchedule(c.Time, c.Label)
	return nil
}

func applyRemove(doc *schema.Document, c Remove) error {
	if !doc.RemoveTask(c.ID) {
		return fmt.Errorf("task %q %w", c.ID, ErrNotFound)
	}
	return nil
}

func applyRemoveSchedule(doc *schema.Document, c RemoveSchedule) error {
	if !doc.RemoveSchedule(c.Time) {
		return fmt.Errorf("schedule entry %q %w", c.Time, ErrNotFound)
	}
	return nil
}
