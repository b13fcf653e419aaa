// Package branch stores the mapping from user-facing branch names to
// internal branch ids, each branch's activity log, the active-branch
// pointer and HEAD.
package branch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankitiscracked/mygit/internal/store"
)

const (
	branchDirName    = "branch"
	activeBranchFile = "ACTIVE_BRANCH"
	activityFile     = "ACTIVITY"
	mapperFile       = "MAPPER.json"
	headFile         = "HEAD"
)

var (
	// ErrUnknownBranch means no branch carries the requested name.
	ErrUnknownBranch = errors.New("unknown branch")
	// ErrCorruptStore means branch bookkeeping is missing or unreadable.
	ErrCorruptStore = errors.New("corrupt branch store")
)

// ID is a branch's internal, never-renamed identifier.
type ID string

// Mapping pairs a branch id with its user-facing name. On disk it is a
// two-element JSON array: [id, name].
type Mapping struct {
	ID   ID
	Name string
}

func (m Mapping) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(m.ID), m.Name})
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	m.ID, m.Name = ID(pair[0]), pair[1]
	return nil
}

// Store reads and writes branch bookkeeping under <ctrl>/branch and <ctrl>/HEAD.
type Store struct {
	dir      string
	headPath string
}

// OpenAt creates a Store for the given control directory.
func OpenAt(ctrlDir string) *Store {
	return &Store{
		dir:      filepath.Join(ctrlDir, branchDirName),
		headPath: filepath.Join(ctrlDir, headFile),
	}
}

// Dir returns the branch directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) activityPath(id ID) string {
	return filepath.Join(s.dir, string(id), activityFile)
}

// Mappings reads the name-mapping table.
func (s *Store) Mappings() ([]Mapping, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, mapperFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read branch mappings: %v", ErrCorruptStore, err)
	}
	var mappings []Mapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("%w: parse branch mappings: %v", ErrCorruptStore, err)
	}
	return mappings, nil
}

// SaveMappings replaces the name-mapping table.
func (s *Store) SaveMappings(mappings []Mapping) error {
	data, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("failed to marshal branch mappings: %w", err)
	}
	return store.AtomicWriteFile(filepath.Join(s.dir, mapperFile), data, 0644)
}

// ResolveSystemName maps a user-facing branch name to its internal id.
func (s *Store) ResolveSystemName(name string) (ID, error) {
	name = strings.TrimSpace(name)
	mappings, err := s.Mappings()
	if err != nil {
		return "", err
	}
	for _, m := range mappings {
		if m.Name == name {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBranch, name)
}

// Names returns every user-facing branch name in table order.
func (s *Store) Names() ([]string, error) {
	mappings, err := s.Mappings()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(mappings))
	for _, m := range mappings {
		names = append(names, m.Name)
	}
	return names, nil
}

// Name returns the user-facing name of id, or the id itself when the
// table has no entry for it.
func (s *Store) Name(id ID) string {
	mappings, err := s.Mappings()
	if err != nil {
		return string(id)
	}
	for _, m := range mappings {
		if m.ID == id {
			return m.Name
		}
	}
	return string(id)
}

// ActiveBranchID reads the active-branch pointer.
func (s *Store) ActiveBranchID() (ID, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, activeBranchFile))
	if err != nil {
		return "", fmt.Errorf("%w: read active branch: %v", ErrCorruptStore, err)
	}
	first, _, _ := strings.Cut(string(data), "\n")
	id := strings.TrimSpace(first)
	if id == "" {
		return "", fmt.Errorf("%w: active branch pointer is empty", ErrCorruptStore)
	}
	return ID(id), nil
}

// SetActive points the active-branch pointer at id.
func (s *Store) SetActive(id ID) error {
	return store.AtomicWriteFile(filepath.Join(s.dir, activeBranchFile), []byte(string(id)), 0644)
}

// ActivityLog returns a branch's version ids, newest first.
func (s *Store) ActivityLog(id ID) ([]store.VersionID, error) {
	data, err := os.ReadFile(s.activityPath(id))
	if err != nil {
		return nil, fmt.Errorf("%w: read activity of %s: %v", ErrCorruptStore, id, err)
	}
	var log []store.VersionID
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		log = append(log, store.VersionID(line))
	}
	return log, nil
}

// WriteActivityLog atomically replaces a branch's activity log.
func (s *Store) WriteActivityLog(id ID, log []store.VersionID) error {
	lines := make([]string, len(log))
	for i, v := range log {
		lines[i] = string(v)
	}
	if err := store.AtomicWriteFile(s.activityPath(id), []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("%w: write activity of %s: %v", store.ErrIO, id, err)
	}
	return nil
}

// Finalize makes v the new tip of the active branch: it is prepended to
// the branch's activity log and HEAD is moved to it. The two writes are
// independent; a crash between them leaves HEAD behind the log.
func (s *Store) Finalize(v store.VersionID) error {
	active, err := s.ActiveBranchID()
	if err != nil {
		return err
	}
	log, err := s.ActivityLog(active)
	if err != nil {
		return err
	}
	next := append([]store.VersionID{v}, log...)
	if err := s.WriteActivityLog(active, next); err != nil {
		return err
	}
	return s.UpdateHead(v)
}
