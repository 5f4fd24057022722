package mutate

import (
	"errors"
	"testing"
	"time"

	"github.com/statusdash/statusctl/internal/schema"
)

var testNow = time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

func applyOrFatal(t *testing.T, doc *schema.Document, cmd Command, now time.Time) {
	t.Helper()
	if err := Apply(doc, cmd, "tester@box", now); err != nil {
		t.Fatalf("Apply(%T) error = %v", cmd, err)
	}
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func TestApply_AddCreatesWaitingTask(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X", Category: "infra"}, testNow)

	if len(doc.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(doc.Tasks))
	}
	task := doc.Tasks[0]
	if task.ID != "t1" || task.Title != "X" || task.Category != "infra" {
		t.Errorf("task = %+v", task)
	}
	if task.Status != schema.StatusWaiting {
		t.Errorf("status = %q, want waiting", task.Status)
	}
	if task.Progress != 0 {
		t.Errorf("progress = %d, want 0", task.Progress)
	}
	if task.StartedAt != nil {
		t.Errorf("started_at = %v, want nil", task.StartedAt)
	}
	if task.Note != "" {
		t.Errorf("note = %q, want empty", task.Note)
	}
	if doc.Meta.UpdatedBy != "tester@box" || !doc.Meta.UpdatedAt.Equal(testNow) {
		t.Errorf("meta not refreshed: %+v", doc.Meta)
	}
}

func TestApply_AddDefaultsCategory(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)
	if doc.Tasks[0].Category != "general" {
		t.Errorf("category = %q, want general", doc.Tasks[0].Category)
	}
}

func TestApply_AddDuplicateID(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)

	err := Apply(doc, Add{ID: "t1", Title: "Y"}, "tester@box", testNow)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second add error = %v, want ErrDuplicateID", err)
	}
	if len(doc.Tasks) != 1 {
		t.Errorf("tasks = %d after failed add, want 1", len(doc.Tasks))
	}
}

func TestApply_UpdatePartial(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X", Category: "infra", Note: "keep me"}, testNow)

	applyOrFatal(t, doc, Update{ID: "t1", Progress: intptr(50)}, testNow.Add(time.Minute))

	task := doc.Tasks[0]
	if task.Progress != 50 {
		t.Errorf("progress = %d, want 50", task.Progress)
	}
	// Unspecified fields are untouched.
	if task.Title != "X" || task.Category != "infra" || task.Note != "keep me" {
		t.Errorf("unspecified fields changed: %+v", task)
	}
	if task.Status != schema.StatusWaiting {
		t.Errorf("status = %q, want waiting", task.Status)
	}
}

func TestApply_UpdateNotFound(t *testing.T) {
	doc := &schema.Document{}
	err := Apply(doc, Update{ID: "absent", Progress: intptr(1)}, "tester@box", testNow)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestApply_StartedAtSetOnce(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)

	first := testNow.Add(time.Minute)
	applyOrFatal(t, doc, Update{ID: "t1", Status: strptr(schema.StatusInProgress)}, first)

	task := doc.FindTask("t1")
	if task.StartedAt == nil || !task.StartedAt.Equal(first) {
		t.Fatalf("started_at = %v, want %v", task.StartedAt, first)
	}

	// Leave in_progress and come back; started_at must not move.
	applyOrFatal(t, doc, Update{ID: "t1", Status: strptr(schema.StatusBlocked)}, testNow.Add(2*time.Minute))
	applyOrFatal(t, doc, Update{ID: "t1", Status: strptr(schema.StatusInProgress)}, testNow.Add(3*time.Minute))

	task = doc.FindTask("t1")
	if !task.StartedAt.Equal(first) {
		t.Errorf("started_at changed to %v, want %v", task.StartedAt, first)
	}
}

func TestApply_UpdateRejectsEmptyStatus(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)

	if err := Apply(doc, Update{ID: "t1", Status: strptr("")}, "tester@box", testNow); err == nil {
		t.Error("empty status should be rejected")
	}
	// Any non-empty status is accepted; the enum is open.
	applyOrFatal(t, doc, Update{ID: "t1", Status: strptr("paused")}, testNow)
	if doc.FindTask("t1").Status != "paused" {
		t.Errorf("status = %q, want paused", doc.FindTask("t1").Status)
	}
}

func TestApply_ValidationGuardsFields(t *testing.T) {
	doc := &schema.Document{}

	if err := Apply(doc, Add{ID: "", Title: "X"}, "tester@box", testNow); err == nil {
		t.Error("add with empty id should be rejected")
	}
	if err := Apply(doc, Add{ID: "t1", Title: ""}, "tester@box", testNow); err == nil {
		t.Error("add with empty title should be rejected")
	}
	if len(doc.Tasks) != 0 {
		t.Fatalf("tasks = %+v, want none after rejected adds", doc.Tasks)
	}

	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)
	if err := Apply(doc, Update{ID: "t1", Title: strptr("")}, "tester@box", testNow); err == nil {
		t.Error("update with empty title should be rejected")
	}
}

func TestApply_DoneNormalizes(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		status   string
	}{
		{name: "from waiting", progress: 0, status: schema.StatusWaiting},
		{name: "from partial progress", progress: 40, status: schema.StatusInProgress},
		{name: "already done", progress: 100, status: schema.StatusDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &schema.Document{}
			applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)
			applyOrFatal(t, doc, Update{ID: "t1", Status: strptr(tt.status), Progress: intptr(tt.progress)}, testNow)

			applyOrFatal(t, doc, Done{ID: "t1"}, testNow.Add(time.Minute))

			task := doc.FindTask("t1")
			if task.Status != schema.StatusDone {
				t.Errorf("status = %q, want done", task.Status)
			}
			if task.Progress != 100 {
				t.Errorf("progress = %d, want 100", task.Progress)
			}
		})
	}
}

func TestApply_DoneNotFound(t *testing.T) {
	doc := &schema.Document{}
	if err := Apply(doc, Done{ID: "absent"}, "tester@box", testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestApply_ScheduleUpsertAndSort(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Schedule{Time: "17:00", Label: "wrap-up"}, testNow)
	applyOrFatal(t, doc, Schedule{Time: "09:00", Label: "standup"}, testNow)
	applyOrFatal(t, doc, Schedule{Time: "12:00", Label: "lunch"}, testNow)

	for i := 1; i < len(doc.Schedule); i++ {
		if doc.Schedule[i-1].Time > doc.Schedule[i].Time {
			t.Fatalf("schedule not sorted: %+v", doc.Schedule)
		}
	}

	applyOrFatal(t, doc, Schedule{Time: "12:00", Label: "team lunch"}, testNow)
	if len(doc.Schedule) != 3 {
		t.Errorf("schedule grew on duplicate time: %+v", doc.Schedule)
	}
	if doc.Schedule[1].Label != "team lunch" {
		t.Errorf("duplicate time did not replace label: %+v", doc.Schedule[1])
	}
}

func TestApply_RemoveSchedule(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Schedule{Time: "09:00", Label: "standup"}, testNow)
	applyOrFatal(t, doc, RemoveSchedule{Time: "09:00"}, testNow)

	if len(doc.Schedule) != 0 {
		t.Errorf("schedule = %+v, want empty", doc.Schedule)
	}
	if err := Apply(doc, RemoveSchedule{Time: "09:00"}, "tester@box", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestApply_Remove(t *testing.T) {
	doc := &schema.Document{}
	applyOrFatal(t, doc, Add{ID: "t1", Title: "X"}, testNow)
	applyOrFatal(t, doc, Remove{ID: "t1"}, testNow)

	if len(doc.Tasks) != 0 {
		t.Errorf("tasks = %+v, want empty", doc.Tasks)
	}
	if err := Apply(doc, Remove{ID: "t1"}, "tester@box", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestApply_Lifecycle runs the add/update/done sequence end to end.
func TestApply_Lifecycle(t *testing.T) {
	doc := &schema.Document{Tasks: []schema.Task{}, Schedule: []schema.ScheduleEntry{}}

	applyOrFatal(t, doc, Add{ID: "t1", Title: "X", Category: "infra"}, testNow)
	task := doc.FindTask("t1")
	if task.Status != schema.StatusWaiting || task.Progress != 0 || task.StartedAt != nil || task.Note != "" {
		t.Fatalf("after add: %+v", task)
	}

	step2 := testNow.Add(time.Minute)
	applyOrFatal(t, doc, Update{ID: "t1", Status: strptr(schema.StatusInProgress), Progress: intptr(40)}, step2)
	task = doc.FindTask("t1")
	if task.Status != schema.StatusInProgress || task.Progress != 40 {
		t.Fatalf("after update: %+v", task)
	}
	if task.StartedAt == nil {
		t.Fatal("started_at still nil after in_progress")
	}
	started := *task.StartedAt

	applyOrFatal(t, doc, Done{ID: "t1"}, testNow.Add(2*time.Minute))
	task = doc.FindTask("t1")
	if task.Status != schema.StatusDone || task.Progress != 100 {
		t.Fatalf("after done: %+v", task)
	}
	if !task.StartedAt.Equal(started) {
		t.Errorf("done changed started_at: %v -> %v", started, task.StartedAt)
	}
}

func TestMirrorFor(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		action  MirrorAction
		subject string
	}{
		{name: "add upserts", cmd: Add{ID: "t1"}, action: MirrorUpsert, subject: "t1"},
		{name: "update upserts", cmd: Update{ID: "t1"}, action: MirrorUpsert, subject: "t1"},
		{name: "done upserts", cmd: Done{ID: "t1"}, action: MirrorUpsert, subject: "t1"},
		{name: "remove archives", cmd: Remove{ID: "t1"}, action: MirrorArchive, subject: "t1"},
		{name: "schedule not mirrored", cmd: Schedule{Time: "09:00"}, action: MirrorNone},
		{name: "remove-schedule not mirrored", cmd: RemoveSchedule{Time: "09:00"}, action: MirrorNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, subject := MirrorFor(tt.cmd)
			if action != tt.action || subject != tt.subject {
				t.Errorf("MirrorFor(%T) = (%v, %q), want (%v, %q)", tt.cmd, action, subject, tt.action, tt.subject)
			}
		})
	}
}
