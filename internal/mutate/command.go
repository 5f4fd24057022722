// Package mutate defines the commands that transform the status
// document, one per CLI subcommand.
package mutate

import (
	"errors"
	"fmt"
)

// Errors reported by command application. Both are fatal for the
// invocation that triggered them.
var (
	// ErrNotFound is returned when a referenced task id or schedule
	// time is absent from the document.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when adding a task whose id already
	// exists.
	ErrDuplicateID = errors.New("duplicate task id")
)

// Command is one document mutation with its typed arguments. Commands
// are applied by Apply's single type switch; they carry no behavior of
// their own beyond the commit message they produce.
type Command interface {
	// Message returns the commit message recorded with a successful
	// write of this command.
	Message() string

	isCommand()
}

// Add creates a new task in waiting state.
type Add struct {
	ID       string
	Title    string
	Category string
	Note     string
}

// Update applies a partial update to an existing task. Nil fields are
// left untouched.
type Update struct {
	ID       string
	Title    *string
	Status   *string
	Category *string
	Note     *string
	Progress *int
}

// Done forces a task to done with full progress.
type Done struct {
	ID string
}

// Schedule upserts a schedule entry by its time key.
type Schedule struct {
	Time  string
	Label string
}

// Remove deletes a task.
type Remove struct {
	ID string
}

// RemoveSchedule deletes a schedule entry by its time key.
type RemoveSchedule struct {
	Time string
}

func (c Add) Message() string            { return fmt.Sprintf("status: add task %s", c.ID) }
func (c Update) Message() string         { return fmt.Sprintf("status: update task %s", c.ID) }
func (c Done) Message() string           { return fmt.Sprintf("status: mark task %s done", c.ID) }
func (c Schedule) Message() string       { return fmt.Sprintf("status: schedule %s", c.Time) }
func (c Remove) Message() string         { return fmt.Sprintf("status: remove task %s", c.ID) }
func (c RemoveSchedule) Message() string { return fmt.Sprintf("status: remove schedule %s", c.Time) }

func (Add) isCommand()            {}
func (Update) isCommand()         {}
func (Done) isCommand()           {}
func (Schedule) isCommand()       {}
func (Remove) isCommand()         {}
func (RemoveSchedule) isCommand() {}

// MirrorAction states what a command means for the secondary mirror.
type MirrorAction int

const (
	// MirrorNone means the command has no mirror representation.
	MirrorNone MirrorAction = iota
	// MirrorUpsert means the affected task is upserted in the mirror.
	MirrorUpsert
	// MirrorArchive means the mirror record is soft-deleted.
	MirrorArchive
)

// MirrorFor reports the mirror action and subject task id for a
// command. Schedule commands are never mirrored.
func MirrorFor(cmd Command) (MirrorAction, string) {
	switch c := cmd.(type) {
	case Add:
		return MirrorUpsert, c.ID
	case Update:
		return MirrorUpsert, c.ID
	case Done:
		return MirrorUpsert, c.ID
	case Remove:
		return MirrorArchive, c.ID
	default:
		return MirrorNone, ""
	}
}

// Subject returns the task id or schedule time a command operates on,
// for journaling and diagnostics.
func Subject(cmd Command) string {
	switch c := cmd.(type) {
	case Add:
		return c.ID
	case Update:
		return c.ID
	case Done:
		return c.ID
	case Remove:
		return c.ID
	case Schedule:
		return c.Time
	case RemoveSchedule:
		return c.Time
	default:
		return ""
	}
}

// Action returns the subcommand name for a command value.
func Action(cmd Command) string {
	switch cmd.(type) {
	case Add:
		return "add"
	case Update:
		return "update"
	case Done:
		return "done"
	case Schedule:
		return "schedule"
	case Remove:
		return "remove"
	case RemoveSchedule:
		return "remove-schedule"
	default:
		return "unknown"
	}
}
