package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an advisory lock covering the scan-through-mark critical section.
//
// Without it two overlapping invocations could both observe "not yet fired"
// and both call the bridge. The lock file is created with O_EXCL and holds
// the owning pid; a lock whose owner is gone is treated as stale and
// reclaimed. Advisory only - it guards cooperating notefire processes, not
// arbitrary writers.
type Lock struct {
	path string
}

// AcquireLock takes the advisory lock next to the ledger file.
// Returns an error if another live process holds it.
func AcquireLock(ledgerPath string) (*Lock, error) {
	path := ledgerPath + ".lock"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("acquire ledger lock %s: %w", path, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			if cerr := f.Close(); cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("acquire ledger lock %s: %w", path, cerr)
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire ledger lock %s: %w", path, err)
		}

		// Lock file exists - stale if its owner is no longer running.
		if !lockIsStale(path) {
			return nil, fmt.Errorf("ledger locked by another process (%s)", path)
		}
		os.Remove(path)
	}

	return nil, fmt.Errorf("ledger locked by another process (%s)", path)
}

// Release removes the lock file.
func (k *Lock) Release() error {
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release ledger lock %s: %w", k.path, err)
	}
	return nil
}

// lockIsStale reports whether the lock file's recorded pid is dead or
// unreadable. An unreadable lock is treated as stale rather than wedging
// every future run.
func lockIsStale(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return true
	}
	// Signal 0 probes process existence without sending anything.
	if err := syscall.Kill(pid, 0); err != nil {
		return err == syscall.ESRCH
	}
	return false
}
