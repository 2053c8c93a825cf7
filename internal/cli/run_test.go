package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkellner/notefire/internal/engine"
	"github.com/rkellner/notefire/internal/ledger"
)

// workspace is a self-contained CLI test environment: documents, ledger,
// audit database, and a config pointing at sh-scripted bridge commands.
type workspace struct {
	dir        string
	configPath string
	ledgerPath string
}

// newWorkspace builds a workspace whose bridge runs bridgeScript via sh
// for every kind. The script reads the request from stdin and its first
// stdout line becomes the receipt.
func newWorkspace(t *testing.T, docText, bridgeScript string) *workspace {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes", "todo.md"), []byte(docText), 0o644))

	ws := &workspace{
		dir:        dir,
		configPath: filepath.Join(dir, "notefire.yaml"),
		ledgerPath: filepath.Join(dir, "ledger.json"),
	}

	cfg := fmt.Sprintf(`
ledger: %q
audit_db: %q
documents:
  - %q
bridge:
  reminder_command: ["sh", "-c", %q]
  calendar_command: ["sh", "-c", %q]
  message_command: ["sh", "-c", %q]
`, ws.ledgerPath,
		filepath.Join(dir, "audit.db"),
		filepath.Join(dir, "notes", "*.md"),
		bridgeScript, bridgeScript, bridgeScript)
	require.NoError(t, os.WriteFile(ws.configPath, []byte(cfg), 0o644))
	return ws
}

func (ws *workspace) ledger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(ws.ledgerPath)
	require.NoError(t, err)
	return l
}

func execCLI(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

const okBridge = `cat >/dev/null; echo item-123`

func TestRunCommand_ExecuteThenRerun(t *testing.T) {
	ws := newWorkspace(t, `Buy milk @reminder(message="Buy milk", at="+2h")`, okBridge)

	out, err := execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 sent")
	assert.Contains(t, out, "receipt=item-123")
	assert.Equal(t, 1, ws.ledger(t).Len())

	out, err = execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 already sent")
	assert.Equal(t, 1, ws.ledger(t).Len())
}

func TestScanCommand_WritesNothing(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`, okBridge)

	out, err := execCLI(t, "scan", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(simulated)")

	_, statErr := os.Stat(ws.ledgerPath)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create the ledger file")
}

func TestRunCommand_BridgeFailureExitsNonzero(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`,
		`cat >/dev/null; echo "no such list" >&2; exit 4`)

	out, err := execCLI(t, "run", "--config", ws.configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "TARGET_NOT_FOUND")
	assert.Zero(t, ws.ledger(t).Len())
}

func TestRunCommand_InvalidConfigExitsCommandError(t *testing.T) {
	_, err := execCLI(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_UnconfirmedMessageIsSimulated(t *testing.T) {
	// A bridge that always fails proves it is never called.
	ws := newWorkspace(t, `@imessage(to="+15551234567", message="hi")`,
		`cat >/dev/null; exit 3`)

	out, err := execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(simulated)")
	assert.Contains(t, out, "not confirmed")
	assert.Zero(t, ws.ledger(t).Len())
}

func TestRunCommand_ConfirmFlagEnablesMessages(t *testing.T) {
	ws := newWorkspace(t, `@imessage(to="+15551234567", message="hi")`, okBridge)

	out, err := execCLI(t, "run", "--config", ws.configPath, "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "1 sent")
	assert.NotContains(t, out, "(simulated)")
	assert.Equal(t, 1, ws.ledger(t).Len())
}

func TestRunCommand_JSONOutput(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`, okBridge)

	out, err := execCLI(t, "run", "--config", ws.configPath, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	var rep engine.Report
	require.NoError(t, json.Unmarshal(resp.Data, &rep))
	assert.Equal(t, "execute", rep.Mode)
	assert.Equal(t, 1, rep.Sent)
	require.Len(t, rep.Details, 1)
	assert.Equal(t, "item-123", rep.Details[0].Receipt)
}

func TestResetCommand_RefiresDirective(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`, okBridge)

	_, err := execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)

	fps := ws.ledger(t).Fingerprints()
	require.Len(t, fps, 1)

	out, err := execCLI(t, "reset", "--config", ws.configPath, fps[0])
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
	assert.Zero(t, ws.ledger(t).Len())

	out, err = execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 sent")
}

func TestResetCommand_UnknownFingerprint(t *testing.T) {
	ws := newWorkspace(t, `plain text`, okBridge)

	_, err := execCLI(t, "reset", "--config", ws.configPath, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLedgerCommand_ListsEntries(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`, okBridge)

	_, err := execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)

	out, err := execCLI(t, "ledger", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 entry")
	assert.Contains(t, out, "[reminder]")
	assert.Contains(t, out, "receipt=item-123")
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	ws := newWorkspace(t, `@reminder(message="Buy milk", at="+2h")`, okBridge)

	_, err := execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)
	_, err = execCLI(t, "run", "--config", ws.configPath)
	require.NoError(t, err)

	out, err := execCLI(t, "history", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sent=1")
	assert.Contains(t, out, "already_sent=1")
}
