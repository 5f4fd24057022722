package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "credentials.json", `{
		"github": {"token": "ghp_test"},
		"notion": {"token": "secret_test", "database_id": "db-1"}
	}`)

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.GitHubToken != "ghp_test" {
		t.Errorf("github token = %q", creds.GitHubToken)
	}
	if creds.NotionToken != "secret_test" || creds.NotionDatabaseID != "db-1" {
		t.Errorf("notion creds = %q/%q", creds.NotionToken, creds.NotionDatabaseID)
	}
}

func TestLoadCredentials_NotionOptional(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "credentials.json", `{"github": {"token": "ghp_test"}}`)

	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.NotionToken != "" {
		t.Errorf("notion token = %q, want empty", creds.NotionToken)
	}
}

func TestLoadCredentials_Missing(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("LoadCredentials() on missing file should fail")
	}
	if !strings.Contains(err.Error(), "credentials file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadCredentials_MissingGitHubToken(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "credentials.json", `{"notion": {"token": "x"}}`)

	if _, err := LoadCredentials(path); err == nil {
		t.Fatal("LoadCredentials() without github.token should fail")
	}
}

func TestLoadCredentials_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "credentials.json", `{not json`)

	if _, err := LoadCredentials(path); err == nil {
		t.Fatal("LoadCredentials() on malformed file should fail")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"owner": "acme",
		"repo": "dashboard",
		"path": "data/status.json",
		"spool_dir": "/var/spool/statusctl"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Owner != "acme" || cfg.Repo != "dashboard" {
		t.Errorf("owner/repo = %q/%q", cfg.Owner, cfg.Repo)
	}
	if cfg.Branch != "main" {
		t.Errorf("branch = %q, want default main", cfg.Branch)
	}
	if cfg.Path != "data/status.json" {
		t.Errorf("path = %q", cfg.Path)
	}
	if cfg.SpoolDir != "/var/spool/statusctl" {
		t.Errorf("spool_dir = %q", cfg.SpoolDir)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STATUSCTL_OWNER", "acme")
	t.Setenv("STATUSCTL_REPO", "dashboard")

	// Run from an empty directory so no stray config file is found.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Owner != "acme" || cfg.Repo != "dashboard" {
		t.Errorf("owner/repo = %q/%q", cfg.Owner, cfg.Repo)
	}
	if cfg.Path != "status.json" {
		t.Errorf("path = %q, want default status.json", cfg.Path)
	}
}

func TestLoad_MissingRepo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"owner": "acme"}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() without repo should fail")
	}
}

func TestDefaultActor(t *testing.T) {
	actor := DefaultActor()
	if actor == "" {
		t.Fatal("DefaultActor() returned empty string")
	}
}
