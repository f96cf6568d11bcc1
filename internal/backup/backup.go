// Package backup periodically snapshots the frontier's auxiliary,
// best-effort state (subdomains, last-request-time, bad-URL sets,
// similarity index) to a side file by atomic write-and-rename. It is
// not transactional with the discovery index: spec §4.9 only promises
// a crash loses at most backup_interval seconds of this bookkeeping,
// never a URL's completion status.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rsnk/politecrawl/internal/frontier"
	"github.com/rsnk/politecrawl/internal/logging"
	"github.com/rsnk/politecrawl/pkg/fileutil"
)

// Source is the subset of Frontier the backup manager snapshots from
// and restores into.
type Source interface {
	Snapshot() frontier.AuxiliarySnapshot
	Restore(frontier.AuxiliarySnapshot)
}

// Manager triggers a snapshot write whenever Tick observes that
// Interval has elapsed since the last one. It holds no goroutine of
// its own; each worker calls Tick after every frontier Next (spec §4.9:
// "checked at each next call").
type Manager struct {
	path     string
	interval time.Duration
	log      logging.Recorder

	mu       sync.Mutex
	lastSave time.Time
}

// NewManager builds a Manager writing snapshots to path.
func NewManager(path string, interval time.Duration, log logging.Recorder) *Manager {
	return &Manager{path: path, interval: interval, log: log}
}

// Tick writes a fresh snapshot from src if Interval has elapsed since
// the last write. A write failure is logged and otherwise ignored:
// auxiliary state is best-effort, never load-bearing for I1-I3.
func (m *Manager) Tick(src Source) {
	m.mu.Lock()
	due := m.lastSave.IsZero() || time.Since(m.lastSave) >= m.interval
	m.mu.Unlock()
	if !due {
		return
	}
	m.Force(src)
}

// Force writes a snapshot unconditionally, used for the controller's
// final backup after every worker has exited.
func (m *Manager) Force(src Source) {
	snap := src.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		m.log.RecordError("backup", "marshal", logging.CauseStorageFailure, err, nil)
		return
	}

	if err := fileutil.EnsureDir(filepath.Dir(m.path)); err != nil {
		m.log.RecordError("backup", "ensure-dir", logging.CauseStorageFailure, err, nil)
		return
	}
	if err := fileutil.AtomicWriteFile(m.path, data); err != nil {
		m.log.RecordError("backup", "write", logging.CauseStorageFailure, err, nil)
		return
	}

	m.mu.Lock()
	m.lastSave = time.Now()
	m.mu.Unlock()
}

// Load reads a previously written snapshot from path, if present. A
// missing file is not an error -- spec §4.9: "otherwise empty defaults
// are used" -- but a corrupt one is surfaced so the controller can
// decide whether to proceed with empty defaults or abort.
func Load(path string) (frontier.AuxiliarySnapshot, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return frontier.AuxiliarySnapshot{}, false, nil
	}
	if err != nil {
		return frontier.AuxiliarySnapshot{}, false, err
	}

	var snap frontier.AuxiliarySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return frontier.AuxiliarySnapshot{}, false, fmt.Errorf("backup: corrupt snapshot at %s: %w", path, err)
	}
	return snap, true, nil
}
