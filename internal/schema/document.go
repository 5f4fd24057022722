// Package schema defines the JSON status document shared through the remote store.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Conventional task statuses. The status field is an open string: any
// non-empty value is accepted, these four are what the dashboard renders.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
)

// Meta records attribution for the most recent write to the document.
type Meta struct {
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// Task is a single tracked work item. IDs are unique within the document
// and immutable after creation. StartedAt is set exactly once, on the
// first transition into in_progress.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Category  string     `json:"category"`
	StartedAt *time.Time `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Progress  int        `json:"progress"`
	Note      string     `json:"note"`
}

// Validate checks the fields a task must always carry.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

// ScheduleEntry is one line of the day schedule. Time is a "HH:MM" string
// and is unique within the schedule.
type ScheduleEntry struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Document is the full status document stored at a single path in the
// remote repository.
type Document struct {
	Meta     Meta            `json:"meta"`
	Tasks    []Task          `json:"tasks"`
	Schedule []ScheduleEntry `json:"schedule"`
}

// Decode parses raw JSON into a Document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse status document: %w", err)
	}
	return &doc, nil
}

// Encode renders the document as pretty-printed JSON with a trailing
// newline, the format expected for the committed file.
func (d *Document) Encode() ([]byte, error) {
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Schedule == nil {
		d.Schedule = []ScheduleEntry{}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status document: %w", err)
	}
	return append(data, '\n'), nil
}

// TaskIndex returns the position of the task with the given id, or -1.
func (d *Document) TaskIndex(id string) int {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns a pointer into the document's task slice, or nil if
// the id is absent. The pointer is invalidated by appends.
func (d *Document) FindTask(id string) *Task {
	if i := d.TaskIndex(id); i >= 0 {
		return &d.Tasks[i]
	}
	return nil
}

// RemoveTask deletes the task with the given id, preserving the order of
// the remaining tasks. Returns false if the id is absent.
func (d *Document) RemoveTask(id string) bool {
	i := d.TaskIndex(id)
	if i < 0 {
		return false
	}
	d.Tasks = append(d.Tasks[:i], d.Tasks[i+1:]...)
	return true
}

// UpsertSchedule inserts a schedule entry or, when the time already
// exists, replaces its label. The schedule is re-sorted afterwards.
func (d *Document) UpsertSchedule(timeOfDay, label string) {
	for i := range d.Schedule {
		if d.Schedule[i].Time == timeOfDay {
			d.Schedule[i].Label = label
			d.SortSchedule()
			return
		}
	}
	d.Schedule = append(d.Schedule, ScheduleEntry{Time: timeOfDay, Label: label})
	d.SortSchedule()
}

// RemoveSchedule deletes the entry with the given time. Returns false if
// no entry matches.
func (d *Document) RemoveSchedule(timeOfDay string) bool {
	for i := range d.Schedule {
		if d.Schedule[i].Time == timeOfDay {
			d.Schedule = append(d.Schedule[:i], d.Schedule[i+1:]...)
			return true
		}
	}
	return false
}

// SortSchedule orders entries ascending by their time string.
func (d *Document) SortSchedule() {
	sort.SliceStable(d.Schedule, func(i, j int) bool {
		return d.Schedule[i].Time < d.Schedule[j].Time
	})
}

// Touch refreshes the attribution metadata. Called after every
// successful mutation.
func (d *Document) Touch(actor string, now time.Time) {
	d.Meta.UpdatedAt = now
	d.Meta.UpdatedBy = actor
}
