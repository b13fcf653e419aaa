package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator allocates version ids. Swap it in tests for determinism.
type IDGenerator interface {
	NewVersionID() VersionID
}

// RandomIDs produces ids of the form <RANDOM>_<unix-millis>.
type RandomIDs struct {
	now func() time.Time
}

// NewRandomIDs returns a generator using now for the timestamp component.
// A nil now uses time.Now.
func NewRandomIDs(now func() time.Time) RandomIDs {
	if now == nil {
		now = time.Now
	}
	return RandomIDs{now: now}
}

func (g RandomIDs) NewVersionID() VersionID {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return VersionID(fmt.Sprintf("%s_%d", random, g.now().UnixMilli()))
}

// maxAllocAttempts bounds retries when a generated id already exists.
const maxAllocAttempts = 5

// PrepareOpts configures a new version directory.
type PrepareOpts struct {
	Message string
	// Baseline is the snapshot directory the new version is seeded from.
	// Empty means the version starts with an empty snapshot.
	Baseline string
}

// Version is an allocated, not yet finalized version directory.
type Version struct {
	ID VersionID
	// Path is the version's snapshot directory.
	Path string
	// Baseline is the snapshot directory it was seeded from, if any.
	Baseline string
}

// Prepare allocates a fresh version directory, writes its message and
// seeds its snapshot with a full copy of opts.Baseline.
func (s *Store) Prepare(opts PrepareOpts) (*Version, error) {
	if opts.Baseline != "" {
		info, err := os.Stat(opts.Baseline)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: baseline %s", ErrMissingSnapshot, opts.Baseline)
		}
	}
	if err := s.EnsureDirs(); err != nil {
		return nil, err
	}

	var id VersionID
	for attempt := 0; ; attempt++ {
		id = s.ids.NewVersionID()
		err := os.Mkdir(s.VersionDir(id), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("%w: create version dir: %v", ErrIO, err)
		}
		if attempt+1 >= maxAllocAttempts {
			return nil, fmt.Errorf("%w: could not allocate a unique version id", ErrIO)
		}
	}

	v := &Version{ID: id, Path: s.SnapshotDir(id), Baseline: opts.Baseline}
	if err := s.populate(v, opts.Message); err != nil {
		_ = s.Discard(id)
		return nil, err
	}
	return v, nil
}

func (s *Store) populate(v *Version, message string) error {
	if err := os.MkdirAll(v.Path, 0755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %v", ErrIO, err)
	}
	msgPath := s.messagePath(v.ID)
	if err := os.MkdirAll(filepath.Dir(msgPath), 0755); err != nil {
		return fmt.Errorf("%w: create meta dir: %v", ErrIO, err)
	}
	if err := os.WriteFile(msgPath, []byte(message), 0644); err != nil {
		return fmt.Errorf("%w: write message: %v", ErrIO, err)
	}
	if v.Baseline != "" {
		if err := CopyTree(v.Baseline, v.Path); err != nil {
			return fmt.Errorf("%w: seed snapshot: %v", ErrIO, err)
		}
	}
	return nil
}
