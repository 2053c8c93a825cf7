package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notefire.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
timezone: "UTC"
ledger: "/tmp/ledger.json"
audit_db: "/tmp/audit.db"
documents:
  - "notes/*.md"
bridge:
  reminder_command: ["notefire-bridge", "reminder"]
  calendar_command: ["notefire-bridge", "calendar"]
  message_command: ["notefire-bridge", "message"]
  timeout_seconds: 30
confirm_messages: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.json", cfg.Ledger)
	assert.Equal(t, "/tmp/audit.db", cfg.AuditDB)
	assert.Equal(t, []string{"notes/*.md"}, cfg.Documents)
	assert.Equal(t, []string{"notefire-bridge", "reminder"}, cfg.Bridge.ReminderCommand)
	assert.Equal(t, 30*time.Second, cfg.BridgeTimeout())
	assert.True(t, cfg.ConfirmMessages)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfig_LedgerRequired(t *testing.T) {
	path := writeConfigFile(t, `documents: ["*.md"]`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger path is required")
}

func TestLoadConfig_UnknownKeyRejected(t *testing.T) {
	path := writeConfigFile(t, `
ledger: "/tmp/ledger.json"
ledgre_typo: true
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfig_BadTimezone(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus_Mons"}
	_, err := cfg.Location()
	require.Error(t, err)
}

func TestConfig_EmptyTimezoneIsLocal(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "notes"), expandHome("~/notes"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "rel/path", expandHome("rel/path"))
}
