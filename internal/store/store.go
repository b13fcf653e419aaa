package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	repoDirName     = "repo"
	snapshotDirName = "store"
	metaDirName     = "meta"
	messageFileName = "MESSAGE"
	mergedFileName  = "MERGED"
)

var (
	// ErrMissingSnapshot means a version's snapshot directory is not on disk.
	ErrMissingSnapshot = errors.New("missing snapshot")
	// ErrIO wraps unexpected filesystem failures other than "not found".
	ErrIO = errors.New("i/o failure")
)

// VersionID identifies a version. It is opaque: not sortable and not
// derived from content.
type VersionID string

func (v VersionID) String() string { return string(v) }

// Store provides typed access to the version directories under
// <ctrl>/repo. Each version holds a full snapshot and a message.
type Store struct {
	repoDir string
	ids     IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how new version ids are allocated.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// OpenAt creates a Store rooted at the given control directory.
func OpenAt(ctrlDir string, opts ...Option) *Store {
	s := &Store{
		repoDir: filepath.Join(ctrlDir, repoDirName),
		ids:     NewRandomIDs(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RepoDir returns the path holding all version directories.
func (s *Store) RepoDir() string { return s.repoDir }

// VersionDir returns the directory of a version.
func (s *Store) VersionDir(id VersionID) string {
	return filepath.Join(s.repoDir, string(id))
}

// SnapshotDir returns the snapshot tree of a version.
func (s *Store) SnapshotDir(id VersionID) string {
	return filepath.Join(s.repoDir, string(id), snapshotDirName)
}

func (s *Store) messagePath(id VersionID) string {
	return filepath.Join(s.repoDir, string(id), metaDirName, messageFileName)
}

func (s *Store) mergedPath(id VersionID) string {
	return filepath.Join(s.repoDir, string(id), metaDirName, mergedFileName)
}

// EnsureDirs creates the repo directory if it doesn't exist.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.repoDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrIO, s.repoDir, err)
	}
	return nil
}

// SnapshotExists checks if a version's snapshot directory exists.
func (s *Store) SnapshotExists(id VersionID) bool {
	info, err := os.Stat(s.SnapshotDir(id))
	return err == nil && info.IsDir()
}

// RequireSnapshots returns ErrMissingSnapshot naming the first id whose
// snapshot directory is absent.
func (s *Store) RequireSnapshots(ids ...VersionID) error {
	for _, id := range ids {
		if !s.SnapshotExists(id) {
			return fmt.Errorf("%w: %s", ErrMissingSnapshot, id)
		}
	}
	return nil
}

// Message reads a version's message.
func (s *Store) Message(id VersionID) (string, error) {
	data, err := os.ReadFile(s.messagePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no message for %s", ErrMissingSnapshot, id)
		}
		return "", fmt.Errorf("%w: read message for %s: %v", ErrIO, id, err)
	}
	return string(data), nil
}

// RecordMerged notes that version id folded in the history ending at
// incoming. Activity logs stay linear, so this is the only trace of the
// merged-in side.
func (s *Store) RecordMerged(id, incoming VersionID) error {
	if err := AtomicWriteFile(s.mergedPath(id), []byte(string(incoming)+"\n"), 0644); err != nil {
		return fmt.Errorf("%w: record merge for %s: %v", ErrIO, id, err)
	}
	return nil
}

// MergedFrom returns the incoming tip recorded for id, or "" when id is
// not a merge version.
func (s *Store) MergedFrom(id VersionID) (VersionID, error) {
	data, err := os.ReadFile(s.mergedPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read merge record for %s: %v", ErrIO, id, err)
	}
	return VersionID(strings.TrimSpace(string(data))), nil
}

// Discard removes a version directory entirely, snapshot and meta alike.
func (s *Store) Discard(id VersionID) error {
	if id == "" {
		return fmt.Errorf("empty version id")
	}
	if err := os.RemoveAll(s.VersionDir(id)); err != nil {
		return fmt.Errorf("%w: discard version %s: %v", ErrIO, id, err)
	}
	return nil
}
