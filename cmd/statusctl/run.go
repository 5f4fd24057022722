package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/statusdash/statusctl/internal/config"
	"github.com/statusdash/statusctl/internal/engine"
	"github.com/statusdash/statusctl/internal/history"
	"github.com/statusdash/statusctl/internal/mirror"
	"github.com/statusdash/statusctl/internal/mutate"
	"github.com/statusdash/statusctl/internal/schema"
	"github.com/statusdash/statusctl/internal/store"
	"github.com/statusdash/statusctl/internal/ui"
)

// app wires the configured components for one invocation.
type app struct {
	cfg    *config.Config
	store  *store.GitHubClient
	engine *engine.Engine
	mirror *mirror.Client // nil unless --notion
	actor  string
}

// newApp loads config and credentials and builds the store, engine, and
// (when --notion is set) the mirror client. Credential problems are
// fatal here, before any network call.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	credsPath, _ := cmd.Flags().GetString("credentials")
	notion, _ := cmd.Flags().GetBool("notion")
	actor, _ := cmd.Flags().GetString("by")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	creds, err := config.LoadCredentials(credsPath)
	if err != nil {
		return nil, err
	}

	gh, err := store.NewGitHub(store.GitHubOptions{
		Token:  creds.GitHubToken,
		Owner:  cfg.Owner,
		Repo:   cfg.Repo,
		Branch: cfg.Branch,
		Path:   cfg.Path,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		store:  gh,
		engine: engine.New(gh, log.New(os.Stderr, "[statusctl] ", log.LstdFlags)),
		actor:  actor,
	}
	if a.actor == "" {
		a.actor = config.DefaultActor()
	}

	if notion {
		m, err := mirror.New(mirror.Options{
			Token:      creds.NotionToken,
			DatabaseID: creds.NotionDatabaseID,
		})
		if err != nil {
			// A broken mirror setup must not block the primary write.
			warnf("notion mirror disabled: %v", err)
		} else {
			a.mirror = m
		}
	}

	return a, nil
}

// run applies one command end to end: primary write through the engine,
// then best-effort journal and mirror steps.
func (a *app) run(ctx context.Context, cmd mutate.Command) (*engine.Result, error) {
	res, err := a.engine.Update(ctx, func(doc *schema.Document) error {
		return mutate.Apply(doc, cmd, a.actor, time.Now().UTC())
	}, cmd.Message())
	if err != nil {
		return nil, err
	}

	a.journal(cmd, res)
	a.syncMirror(ctx, cmd, res)
	return res, nil
}

// journal records the successful write locally. Failures are warnings.
func (a *app) journal(cmd mutate.Command, res *engine.Result) {
	db, err := history.Open(config.DefaultHistoryPath())
	if err != nil {
		warnf("history journal unavailable: %v", err)
		return
	}
	defer db.Close()

	err = db.Record(history.Entry{
		Actor:    a.actor,
		Action:   mutate.Action(cmd),
		Subject:  mutate.Subject(cmd),
		Message:  cmd.Message(),
		Revision: res.Revision,
	})
	if err != nil {
		warnf("failed to journal entry: %v", err)
	}
}

// syncMirror replicates the change to Notion when enabled. The primary
// write already succeeded; every failure here is a warning.
func (a *app) syncMirror(ctx context.Context, cmd mutate.Command, res *engine.Result) {
	if a.mirror == nil {
		return
	}

	action, taskID := mutate.MirrorFor(cmd)
	switch action {
	case mutate.MirrorUpsert:
		task := res.Document.FindTask(taskID)
		if task == nil {
			warnf("task %s vanished before mirror sync", taskID)
			return
		}
		if err := a.mirror.Upsert(ctx, *task); err != nil {
			warnf("mirror sync failed: %v", err)
		}
	case mutate.MirrorArchive:
		if err := a.mirror.Archive(ctx, taskID); err != nil {
			warnf("mirror archive failed: %v", err)
		}
	}
}

// warnf prints a styled warning line. Warnings never change the exit
// status.
func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ui.RenderWarn(fmt.Sprintf("Warning: "+format, args...)))
}

// fatal prints the error and exits with status 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
