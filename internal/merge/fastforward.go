package merge

import (
	"go.uber.org/zap"

	"github.com/ankitiscracked/mygit/internal/patch"
	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/workspace"
)

// fastForward re-points the receiving branch at the incoming tip. The
// receiving log gains incoming[:k], the versions it lacks; no version is
// created.
func (e *Executor) fastForward(res *Result, receiving, incoming []store.VersionID, k int) error {
	versions := e.h.Versions()
	if err := versions.RequireSnapshots(res.ReceivingTip, res.IncomingTip); err != nil {
		return err
	}
	fromDir := versions.SnapshotDir(res.ReceivingTip)
	toDir := versions.SnapshotDir(res.IncomingTip)

	files, err := e.summarize(fromDir, toDir)
	if err != nil {
		return err
	}
	res.Files = files

	tree, err := workspace.Sync(toDir, e.h.Root(), e.h.Lister())
	res.Tree = tree
	if err != nil {
		return err
	}

	next := make([]store.VersionID, 0, k+len(receiving))
	next = append(next, incoming[:k]...)
	next = append(next, receiving...)

	branches := e.h.Branches()
	if err := branches.WriteActivityLog(res.Receiving.ID, next); err != nil {
		return err
	}
	if err := branches.UpdateHead(res.IncomingTip); err != nil {
		return err
	}

	e.clearConflicts(e.log)
	e.log.Info("fast-forwarded",
		zap.String("branch", res.Receiving.Name),
		zap.String("tip", string(res.IncomingTip)),
		zap.Int("versions", k))
	return nil
}

// summarize reports line changes from one snapshot to another: files in to
// (missing in from reads as empty) followed by files only in from.
func (e *Executor) summarize(fromDir, toDir string) ([]FileStat, error) {
	lister := e.h.Lister()
	toFiles, err := lister.List(toDir)
	if err != nil {
		return nil, err
	}
	fromFiles, err := lister.List(fromDir)
	if err != nil {
		return nil, err
	}

	var stats []FileStat
	seen := make(map[string]bool, len(toFiles))
	for _, rel := range toFiles {
		seen[rel] = true
		before, err := store.ReadOrEmpty(fromDir, rel)
		if err != nil {
			return nil, err
		}
		after, err := store.ReadOrEmpty(toDir, rel)
		if err != nil {
			return nil, err
		}
		if st := patch.Summarize(before, after); st.Changed() {
			stats = append(stats, FileStat{Path: rel, Added: st.Added, Removed: st.Removed})
		}
	}
	for _, rel := range fromFiles {
		if seen[rel] {
			continue
		}
		before, err := store.ReadOrEmpty(fromDir, rel)
		if err != nil {
			return nil, err
		}
		if st := patch.Summarize(before, ""); st.Changed() {
			stats = append(stats, FileStat{Path: rel, Added: st.Added, Removed: st.Removed})
		}
	}
	return stats, nil
}
