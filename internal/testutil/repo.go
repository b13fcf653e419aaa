// Package testutil builds throwaway repositories on disk for tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/ignore"
	"github.com/ankitiscracked/mygit/internal/store"
)

// Repo is a repository under a temp dir.
type Repo struct {
	t        testing.TB
	Root     string
	Ctrl     string
	Versions *store.Store
	Branches *branch.Store
	mappings []branch.Mapping
}

// NewRepo creates an empty repository with no branches.
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	root := t.TempDir()
	ctrl := filepath.Join(root, ignore.ControlDir)
	r := &Repo{
		t:        t,
		Root:     root,
		Ctrl:     ctrl,
		Versions: store.OpenAt(ctrl),
		Branches: branch.OpenAt(ctrl),
	}
	if err := r.Versions.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if err := r.Branches.SaveMappings([]branch.Mapping{}); err != nil {
		t.Fatalf("SaveMappings: %v", err)
	}
	return r
}

// AddVersion writes a version directory with the given snapshot files.
func (r *Repo) AddVersion(id store.VersionID, message string, files map[string]string) {
	r.t.Helper()
	WriteFiles(r.t, r.Versions.SnapshotDir(id), files)
	if err := os.MkdirAll(r.Versions.SnapshotDir(id), 0755); err != nil {
		r.t.Fatalf("mkdir snapshot: %v", err)
	}
	WriteFiles(r.t, filepath.Join(r.Versions.VersionDir(id), "meta"), map[string]string{"MESSAGE": message})
}

// AddBranch registers a branch and writes its activity log (newest first).
func (r *Repo) AddBranch(id branch.ID, name string, log ...store.VersionID) {
	r.t.Helper()
	r.mappings = append(r.mappings, branch.Mapping{ID: id, Name: name})
	if err := r.Branches.SaveMappings(r.mappings); err != nil {
		r.t.Fatalf("SaveMappings: %v", err)
	}
	if err := r.Branches.WriteActivityLog(id, log); err != nil {
		r.t.Fatalf("WriteActivityLog: %v", err)
	}
}

// Checkout makes id the active branch, points HEAD at its tip and writes
// the tip snapshot into the working tree.
func (r *Repo) Checkout(id branch.ID) {
	r.t.Helper()
	if err := r.Branches.SetActive(id); err != nil {
		r.t.Fatalf("SetActive: %v", err)
	}
	log := r.Log(id)
	if len(log) == 0 {
		return
	}
	head := branch.Head{Branch: id, Version: log[0]}
	if err := store.AtomicWriteFile(filepath.Join(r.Ctrl, "HEAD"), []byte(head.String()), 0644); err != nil {
		r.t.Fatalf("write HEAD: %v", err)
	}
	WriteFiles(r.t, r.Root, r.Snapshot(log[0]))
}

// Log reads a branch's activity log.
func (r *Repo) Log(id branch.ID) []store.VersionID {
	r.t.Helper()
	log, err := r.Branches.ActivityLog(id)
	if err != nil {
		r.t.Fatalf("ActivityLog: %v", err)
	}
	return log
}

// Head returns HEAD's raw text.
func (r *Repo) Head() string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Ctrl, "HEAD"))
	if err != nil {
		r.t.Fatalf("read HEAD: %v", err)
	}
	return string(data)
}

// Snapshot reads a version's snapshot files.
func (r *Repo) Snapshot(id store.VersionID) map[string]string {
	r.t.Helper()
	return ReadTree(r.t, r.Versions.SnapshotDir(id))
}

// WorkingTree reads the working tree, leaving out the control directory.
func (r *Repo) WorkingTree() map[string]string {
	r.t.Helper()
	return ReadTree(r.t, r.Root)
}

// VersionIDs lists every version directory on disk, sorted.
func (r *Repo) VersionIDs() []store.VersionID {
	r.t.Helper()
	entries, err := os.ReadDir(r.Versions.RepoDir())
	if err != nil {
		r.t.Fatalf("read repo dir: %v", err)
	}
	var ids []store.VersionID
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, store.VersionID(e.Name()))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WriteFiles writes files (slash-separated relative paths) under root.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// ReadTree reads every regular file under root outside the control
// directory, keyed by slash-separated relative path.
func ReadTree(t testing.TB, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == ignore.ControlDir || strings.HasPrefix(rel, ignore.ControlDir+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", root, err)
	}
	return files
}

// SeqIDs hands out a fixed list of version ids in order.
type SeqIDs struct {
	mu  sync.Mutex
	ids []store.VersionID
}

// NewSeqIDs returns a generator yielding ids in order.
func NewSeqIDs(ids ...store.VersionID) *SeqIDs {
	return &SeqIDs{ids: ids}
}

func (g *SeqIDs) NewVersionID() store.VersionID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.ids) == 0 {
		panic("testutil: SeqIDs exhausted")
	}
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id
}
