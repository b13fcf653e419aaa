package branch

import (
	"fmt"
	"os"
	"strings"

	"github.com/ankitiscracked/mygit/internal/store"
)

// Head records the active branch and its tip: <branch-id>@<version-id>.
type Head struct {
	Branch  ID
	Version store.VersionID
}

func (h Head) String() string {
	return string(h.Branch) + "@" + string(h.Version)
}

// ParseHead parses the text form of HEAD.
func ParseHead(s string) (Head, error) {
	s = strings.TrimSpace(s)
	branchPart, versionPart, ok := strings.Cut(s, "@")
	if !ok || branchPart == "" {
		return Head{}, fmt.Errorf("%w: malformed HEAD %q", ErrCorruptStore, s)
	}
	return Head{Branch: ID(branchPart), Version: store.VersionID(versionPart)}, nil
}

// ReadHead reads and parses HEAD.
func (s *Store) ReadHead() (Head, error) {
	data, err := os.ReadFile(s.headPath)
	if err != nil {
		return Head{}, fmt.Errorf("%w: read HEAD: %v", ErrCorruptStore, err)
	}
	return ParseHead(string(data))
}

// UpdateHead points HEAD at v, keeping its branch component. When HEAD is
// missing or malformed the active branch supplies the branch component.
func (s *Store) UpdateHead(v store.VersionID) error {
	head, err := s.ReadHead()
	if err != nil {
		active, activeErr := s.ActiveBranchID()
		if activeErr != nil {
			return activeErr
		}
		head = Head{Branch: active}
	}
	head.Version = v
	if err := store.AtomicWriteFile(s.headPath, []byte(head.String()), 0644); err != nil {
		return fmt.Errorf("%w: write HEAD: %v", store.ErrIO, err)
	}
	return nil
}
