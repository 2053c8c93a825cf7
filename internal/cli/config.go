package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file for the notefire CLI.
//
// Paths may start with "~/" which expands to the user's home directory.
type Config struct {
	// Timezone is an IANA zone name for time expression resolution.
	// Empty means the process-local zone.
	Timezone string `yaml:"timezone,omitempty"`

	// Ledger is the idempotency ledger file path. Required.
	Ledger string `yaml:"ledger"`

	// AuditDB is the SQLite audit database path. Empty disables auditing.
	AuditDB string `yaml:"audit_db,omitempty"`

	// Documents are glob patterns naming the texts to scan.
	Documents []string `yaml:"documents"`

	Bridge BridgeConfig `yaml:"bridge"`

	// ConfirmMessages enables real message dispatch in execute mode.
	// Deliberately a config-file setting, not a flag default: sending
	// messages is irreversible and opting in should be an edit, not a typo.
	ConfirmMessages bool `yaml:"confirm_messages,omitempty"`
}

// BridgeConfig names the external commands that perform each action.
type BridgeConfig struct {
	ReminderCommand []string `yaml:"reminder_command"`
	CalendarCommand []string `yaml:"calendar_command"`
	MessageCommand  []string `yaml:"message_command"`

	// TimeoutSeconds bounds one bridge call. Zero means the default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// LoadConfig reads and validates the config file at path.
// Unknown YAML keys are rejected so typos surface immediately.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Ledger == "" {
		return nil, fmt.Errorf("config %s: ledger path is required", path)
	}

	cfg.Ledger = expandHome(cfg.Ledger)
	cfg.AuditDB = expandHome(cfg.AuditDB)
	for i, g := range cfg.Documents {
		cfg.Documents[i] = expandHome(g)
	}
	return &cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BridgeTimeout returns the configured per-call timeout, or zero when the
// engine default should apply.
func (c *Config) BridgeTimeout() time.Duration {
	return time.Duration(c.Bridge.TimeoutSeconds) * time.Second
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
