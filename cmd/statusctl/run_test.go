package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/statusdash/statusctl/internal/engine"
	"github.com/statusdash/statusctl/internal/mirror"
	"github.com/statusdash/statusctl/internal/mutate"
	"github.com/statusdash/statusctl/internal/schema"
)

// stubStore keeps the document in memory and accepts every write.
type stubStore struct {
	doc      *schema.Document
	revision int
}

func (s *stubStore) Fetch(ctx context.Context) (*schema.Document, string, error) {
	return s.doc, fmt.Sprintf("rev-%d", s.revision), nil
}

func (s *stubStore) Write(ctx context.Context, doc *schema.Document, revision, message string) (string, error) {
	s.doc = doc
	s.revision++
	return fmt.Sprintf("rev-%d", s.revision), nil
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}
	return string(out)
}

// A failing mirror and an unwritable journal must not disturb the
// primary write: run still returns the committed result with a nil
// error and reports both failures as warnings.
func TestRun_MirrorAndJournalFailuresAreWarnings(t *testing.T) {
	// Point the journal at a home directory that is a regular file so
	// creating the state directory fails.
	home := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(home, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("HOME", home)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	defer failing.Close()

	m, err := mirror.New(mirror.Options{
		Token:      "secret",
		DatabaseID: "db",
		BaseURL:    failing.URL,
		HTTPClient: failing.Client(),
	})
	if err != nil {
		t.Fatalf("mirror.New() error = %v", err)
	}

	st := &stubStore{doc: &schema.Document{}}
	a := &app{
		engine: engine.New(st, log.New(io.Discard, "", 0)),
		mirror: m,
		actor:  "tester@box",
	}

	var res *engine.Result
	var runErr error
	out := captureStderr(t, func() {
		res, runErr = a.run(context.Background(), mutate.Add{ID: "t1", Title: "Ship it"})
	})

	if runErr != nil {
		t.Fatalf("run() error = %v, want nil", runErr)
	}
	if res == nil || res.Revision != "rev-1" {
		t.Fatalf("result = %+v, want revision rev-1", res)
	}
	if st.doc.FindTask("t1") == nil {
		t.Error("primary write did not land task t1")
	}
	if !strings.Contains(out, "Warning: history journal unavailable") {
		t.Errorf("stderr = %q, want journal warning", out)
	}
	if !strings.Contains(out, "Warning: mirror sync failed") {
		t.Errorf("stderr = %q, want mirror warning", out)
	}
}

// Archive failures on remove follow the same rule.
func TestRun_MirrorArchiveFailureIsWarning(t *testing.T) {
	home := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(home, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("HOME", home)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	defer failing.Close()

	m, err := mirror.New(mirror.Options{
		Token:      "secret",
		DatabaseID: "db",
		BaseURL:    failing.URL,
		HTTPClient: failing.Client(),
	})
	if err != nil {
		t.Fatalf("mirror.New() error = %v", err)
	}

	st := &stubStore{doc: &schema.Document{
		Tasks: []schema.Task{{ID: "t1", Title: "X", Status: schema.StatusWaiting}},
	}}
	a := &app{
		engine: engine.New(st, log.New(io.Discard, "", 0)),
		mirror: m,
		actor:  "tester@box",
	}

	var res *engine.Result
	var runErr error
	out := captureStderr(t, func() {
		res, runErr = a.run(context.Background(), mutate.Remove{ID: "t1"})
	})

	if runErr != nil {
		t.Fatalf("run() error = %v, want nil", runErr)
	}
	if res == nil {
		t.Fatal("run() result = nil, want committed result")
	}
	if st.doc.FindTask("t1") != nil {
		t.Error("task t1 still present after remove")
	}
	if !strings.Contains(out, "Warning: mirror archive failed") {
		t.Errorf("stderr = %q, want archive warning", out)
	}
}
