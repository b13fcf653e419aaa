// Package workspace updates the working tree to match a snapshot.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ankitiscracked/mygit/internal/manifest"
	"github.com/ankitiscracked/mygit/internal/store"
)

// ActionKind is what Sync did to one path.
type ActionKind string

const (
	ActionWrite     ActionKind = "write"
	ActionDelete    ActionKind = "delete"
	ActionUnchanged ActionKind = "unchanged"
)

// Action describes a single file-level action.
type Action struct {
	Path string
	Kind ActionKind
}

// SyncResult contains the outcome of a sync.
type SyncResult struct {
	Actions   []Action
	Written   int
	Deleted   int
	Unchanged int
}

// Sync makes the tracked files under dest equal to those under src. Files
// are copied when their content differs; tracked files in dest that src
// lacks are removed along with any directories left empty. Paths the
// lister ignores are never touched.
func Sync(src, dest string, lister *manifest.Lister) (*SyncResult, error) {
	srcFiles, err := lister.List(src)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan %s: %v", store.ErrIO, src, err)
	}
	destFiles, err := lister.List(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan %s: %v", store.ErrIO, dest, err)
	}

	wanted := make(map[string]bool, len(srcFiles))
	result := &SyncResult{}

	for _, rel := range srcFiles {
		wanted[rel] = true
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dest, filepath.FromSlash(rel))

		if same, err := sameContent(from, to); err == nil && same {
			result.Actions = append(result.Actions, Action{Path: rel, Kind: ActionUnchanged})
			result.Unchanged++
			continue
		}

		info, err := os.Stat(from)
		if err != nil {
			return result, fmt.Errorf("%w: stat %s: %v", store.ErrIO, rel, err)
		}
		// A directory in the way of a file is replaced.
		if fi, err := os.Lstat(to); err == nil && fi.IsDir() {
			if err := os.RemoveAll(to); err != nil {
				return result, fmt.Errorf("%w: replace %s: %v", store.ErrIO, rel, err)
			}
		}
		if err := store.CopyFile(from, to, info.Mode().Perm()); err != nil {
			return result, fmt.Errorf("%w: write %s: %v", store.ErrIO, rel, err)
		}
		result.Actions = append(result.Actions, Action{Path: rel, Kind: ActionWrite})
		result.Written++
	}

	for _, rel := range destFiles {
		if wanted[rel] {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return result, fmt.Errorf("%w: delete %s: %v", store.ErrIO, rel, err)
		}
		result.Actions = append(result.Actions, Action{Path: rel, Kind: ActionDelete})
		result.Deleted++
		pruneEmptyParents(dest, filepath.Dir(target))
	}

	return result, nil
}

func sameContent(a, b string) (bool, error) {
	ha, err := manifest.HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := manifest.HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// pruneEmptyParents removes dir and its ancestors below root while they
// are empty.
func pruneEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
