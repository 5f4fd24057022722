// Package config loads tool configuration and service credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the tool configuration: where the status document lives and
// where local state goes. Values come from a config file
// (.statusctl.json in the working directory, or config.json under
// ~/.config/statusctl/), overridable via STATUSCTL_* environment
// variables.
type Config struct {
	Owner  string `mapstructure:"owner"`
	Repo   string `mapstructure:"repo"`
	Branch string `mapstructure:"branch"`
	Path   string `mapstructure:"path"`

	// SpoolDir is watched by the daemon for queued command files.
	SpoolDir string `mapstructure:"spool_dir"`

	// LogFile, when set, receives rotating daemon logs.
	LogFile string `mapstructure:"log_file"`
}

// Credentials holds the tokens for both remote services, loaded from a
// single local file before any network call.
type Credentials struct {
	GitHubToken      string
	NotionToken      string
	NotionDatabaseID string
}

// Load reads the tool configuration. If path is non-empty only that
// file is considered; otherwise the standard locations are searched.
// A missing config file is tolerated as long as the required fields
// arrive via environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("branch", "main")
	v.SetDefault("path", "status.json")
	v.SetEnvPrefix("STATUSCTL")
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about, so bind each
	// one for env-only configuration.
	for _, key := range []string{"owner", "repo", "branch", "path", "spool_dir", "log_file"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".statusctl")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if dir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ".config", "statusctl"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("repository owner and repo must be configured (config file or STATUSCTL_OWNER/STATUSCTL_REPO)")
	}
	return &cfg, nil
}

// LoadCredentials reads the nested token file. Absence or malformed
// content is fatal before any network call; individual service tokens
// are validated by the components that need them.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		path = DefaultCredentialsPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("credentials file not found at %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read credentials %s: %w", path, err)
	}

	creds := &Credentials{
		GitHubToken:      v.GetString("github.token"),
		NotionToken:      v.GetString("notion.token"),
		NotionDatabaseID: v.GetString("notion.database_id"),
	}
	if creds.GitHubToken == "" {
		return nil, fmt.Errorf("github.token missing from %s", path)
	}
	return creds, nil
}

// DefaultCredentialsPath returns ~/.config/statusctl/credentials.json.
func DefaultCredentialsPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(dir, ".config", "statusctl", "credentials.json")
}

// DefaultHistoryPath returns the local mutation journal location.
func DefaultHistoryPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(dir, ".local", "state", "statusctl", "history.db")
}

// DefaultActor derives the attribution identity from the invoking user
// and host, e.g. "alice@buildbox".
func DefaultActor() string {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if name == "" {
		name = "unknown"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return name
	}
	return name + "@" + host
}
