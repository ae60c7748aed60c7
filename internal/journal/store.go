// Package journal implements the journal store (spec.md §4.3): a single
// on-disk JSON document, with size/age-triggered rollover into a
// directory of timestamped snapshots, guarded by a single-holder lock.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AliZeynalov/ai-router-facade/internal/apierror"
)

// Options mirrors spec.md §3's Journal-Store Options.
type Options struct {
	Enabled           bool
	FilePath          string
	MaxFileSizeBytes  int64
	MaxFileAge        time.Duration
	RolloverDirectory string
}

// Validate checks the invariants spec.md §3 requires at startup.
func (o Options) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.FilePath == "" {
		return apierror.NewConfigurationError("journal: FilePath must be set when enabled")
	}
	if o.MaxFileSizeBytes <= 0 {
		return apierror.NewConfigurationError("journal: MaxFileSizeBytes must be positive")
	}
	if o.MaxFileAge <= 0 {
		return apierror.NewConfigurationError("journal: MaxFileAge must be positive")
	}
	if o.RolloverDirectory == "" {
		return apierror.NewConfigurationError("journal: RolloverDirectory must be set when enabled")
	}
	return nil
}

// Store is the journal store. All mutating operations, and reads, are
// serialized by a single exclusive lock per spec.md §4.3 — contention is
// low (one acquisition per user request) so this trades throughput for
// simple, torn-write-free semantics.
type Store struct {
	mu   sync.Mutex
	opts Options
}

// New constructs a Store from already-validated Options.
func New(opts Options) *Store {
	return &Store{opts: opts}
}

// EnsureFile creates an empty document at start-up if the store is
// enabled, creating parent directories as needed.
func (s *Store) EnsureFile() error {
	if !s.opts.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.opts.FilePath), 0o755); err != nil {
		return &apierror.JournalError{Op: "ensure-file", Path: s.opts.FilePath, Cause: err}
	}
	if err := os.MkdirAll(s.opts.RolloverDirectory, 0o755); err != nil {
		return &apierror.JournalError{Op: "ensure-file", Path: s.opts.RolloverDirectory, Cause: err}
	}

	if _, err := os.Stat(s.opts.FilePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &apierror.JournalError{Op: "ensure-file", Path: s.opts.FilePath, Cause: err}
	}
	return s.writeEmptyLocked()
}

func (s *Store) writeEmptyLocked() error {
	empty := json.RawMessage(`{}`)
	return s.writeRawLocked(empty)
}

func (s *Store) writeRawLocked(data []byte) error {
	if err := os.WriteFile(s.opts.FilePath, data, 0o644); err != nil {
		return &apierror.JournalError{Op: "write", Path: s.opts.FilePath, Cause: err}
	}
	return nil
}

// Load reads the document at FilePath into dst. If the store is
// disabled, or the file is absent or empty, dst is left untouched and
// ok is false — spec.md's "load returns null" behavior.
func Load[T any](s *Store, dst *T) (ok bool, err error) {
	if !s.opts.Enabled {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(dst)
}

func (s *Store) loadLocked(dst any) (bool, error) {
	data, err := os.ReadFile(s.opts.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &apierror.JournalError{Op: "load", Path: s.opts.FilePath, Cause: err}
	}
	if len(strings.TrimSpace(string(data))) == 0 || string(data) == "{}" {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, &apierror.JournalError{Op: "load", Path: s.opts.FilePath, Cause: err}
	}
	return true, nil
}

// Read is an alias for Load, per spec.md §4.3.
func Read[T any](s *Store, dst *T) (bool, error) {
	return Load(s, dst)
}

// Write replaces the document with doc. If the store is disabled this
// silently drops the write. Per spec.md §4.3, rollover-check always runs
// before the write, inside the same critical section.
func Write[T any](s *Store, doc T) error {
	if !s.opts.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rolloverIfNeededLocked(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &apierror.JournalError{Op: "write", Path: s.opts.FilePath, Cause: err}
	}
	return s.writeRawLocked(data)
}

// RolloverIfNeeded moves the current document into the rollover
// directory and recreates an empty one if its size exceeds
// MaxFileSizeBytes or its age exceeds MaxFileAge.
func (s *Store) RolloverIfNeeded() error {
	if !s.opts.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolloverIfNeededLocked()
}

func (s *Store) rolloverIfNeededLocked() error {
	info, err := os.Stat(s.opts.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &apierror.JournalError{Op: "rollover-check", Path: s.opts.FilePath, Cause: err}
	}

	tooBig := info.Size() > s.opts.MaxFileSizeBytes
	tooOld := time.Since(info.ModTime()) > s.opts.MaxFileAge
	if !tooBig && !tooOld {
		return nil
	}
	return s.rolloverLocked()
}

// ForceRollover moves+recreates the document unconditionally.
func (s *Store) ForceRollover() error {
	if !s.opts.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.opts.FilePath); err != nil {
		if os.IsNotExist(err) {
			return s.writeEmptyLocked()
		}
		return &apierror.JournalError{Op: "force-rollover", Path: s.opts.FilePath, Cause: err}
	}
	return s.rolloverLocked()
}

func (s *Store) rolloverLocked() error {
	if err := os.MkdirAll(s.opts.RolloverDirectory, 0o755); err != nil {
		return &apierror.JournalError{Op: "rollover", Path: s.opts.RolloverDirectory, Cause: err}
	}

	ext := filepath.Ext(s.opts.FilePath)
	stem := strings.TrimSuffix(filepath.Base(s.opts.FilePath), ext)
	suffix := time.Now().Local().Format("20060102_150405")

	// Two rollovers within the same second would otherwise collide on
	// name (spec requires "force-rollover twice in succession" to yield
	// two distinct archive files), so disambiguate with a counter.
	archiveName := fmt.Sprintf("%s_%s%s", stem, suffix, ext)
	archivePath := filepath.Join(s.opts.RolloverDirectory, archiveName)
	for i := 2; ; i++ {
		if _, err := os.Stat(archivePath); os.IsNotExist(err) {
			break
		}
		archiveName = fmt.Sprintf("%s_%s_%d%s", stem, suffix, i, ext)
		archivePath = filepath.Join(s.opts.RolloverDirectory, archiveName)
	}

	if err := os.Rename(s.opts.FilePath, archivePath); err != nil {
		return &apierror.JournalError{Op: "rollover", Path: s.opts.FilePath, Cause: err}
	}

	log.WithFields(log.Fields{
		"archive": archivePath,
		"event":   "journal_rollover",
	}).Info("journal rolled over")

	return s.writeEmptyLocked()
}
