package merge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/ankitiscracked/mygit/internal/conflicts"
	"github.com/ankitiscracked/mygit/internal/patch"
	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/workspace"
)

// ConflictsFileName holds the JSON conflict report of the last merge that
// stopped on conflicts. A later successful merge removes it.
const ConflictsFileName = "MERGE_CONFLICTS.json"

// MergeMessage is the message recorded on a merge version.
func MergeMessage(incoming, receiving string) string {
	return fmt.Sprintf("Merge '%s' branch into %s", incoming, receiving)
}

// pass applies one side's changes to the in-progress version.
type pass struct {
	id     conflicts.Pass
	branch string
	side   string // side snapshot directory
}

// threeWay seeds a new version from the ancestor and applies the receiving
// side's changes (pass A), then the incoming side's (pass B). Patches are
// always taken against the ancestor's content.
func (e *Executor) threeWay(res *Result) (*Result, error) {
	versions := e.h.Versions()
	if err := versions.RequireSnapshots(res.Ancestor, res.ReceivingTip, res.IncomingTip); err != nil {
		return nil, err
	}

	res.Message = MergeMessage(res.Incoming.Name, res.Receiving.Name)
	v, err := e.h.PrepareVersion(res.Message, res.Ancestor)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.String("version", string(v.ID)), zap.String("ancestor", string(res.Ancestor)))
	log.Debug("prepared merge version", zap.String("strategy", e.merger.Name()))

	report := &conflicts.Report{Ancestor: string(res.Ancestor)}
	passes := []pass{
		{id: conflicts.PassReceiving, branch: res.Receiving.Name, side: versions.SnapshotDir(res.ReceivingTip)},
		{id: conflicts.PassIncoming, branch: res.Incoming.Name, side: versions.SnapshotDir(res.IncomingTip)},
	}
	for _, p := range passes {
		if err := e.applyPass(p, versions.SnapshotDir(res.Ancestor), v, report); err != nil {
			e.discard(log, v.ID)
			return nil, err
		}
	}

	if report.HasConflicts() {
		res.Conflicts = report
		if path, err := e.saveConflicts(report); err != nil {
			log.Warn("failed to save conflict report", zap.Error(err))
		} else {
			res.ConflictsFile = path
		}
		if err := versions.Discard(v.ID); err != nil {
			return res, errors.Join(ErrConflicts, err)
		}
		log.Info("merge aborted", zap.Strings("conflicts", report.Paths()))
		return res, ErrConflicts
	}

	files, err := e.summarize(versions.SnapshotDir(res.ReceivingTip), v.Path)
	if err != nil {
		return nil, err
	}
	res.Files = files

	if err := versions.RecordMerged(v.ID, res.IncomingTip); err != nil {
		e.discard(log, v.ID)
		return nil, err
	}
	if err := e.h.Branches().Finalize(v.ID); err != nil {
		// A log that already lists the version keeps it; only HEAD is stale.
		if !e.onActiveLog(v.ID) {
			e.discard(log, v.ID)
		}
		return nil, err
	}
	res.Version = v.ID
	e.clearConflicts(log)

	tree, err := workspace.Sync(v.Path, e.h.Root(), e.h.Lister())
	res.Tree = tree
	if err != nil {
		return res, err
	}
	log.Info("merged", zap.String("branch", res.Receiving.Name), zap.Int("files", len(files)))
	return res, nil
}

// applyPass merges every file of one side into the version. Successful
// results are also written to the working tree; a failed file keeps its
// current content and is recorded in report.
func (e *Executor) applyPass(p pass, ancestorDir string, v *store.Version, report *conflicts.Report) error {
	files, err := e.h.Lister().List(p.side)
	if err != nil {
		return fmt.Errorf("%w: list %s: %v", store.ErrIO, p.side, err)
	}

	for _, rel := range files {
		ancestor, err := store.ReadOrEmpty(ancestorDir, rel)
		if err != nil {
			return err
		}
		side, err := store.ReadOrEmpty(p.side, rel)
		if err != nil {
			return err
		}
		current, err := store.ReadOrEmpty(v.Path, rel)
		if err != nil {
			return err
		}

		merged, err := e.merger.Merge(ancestor, current, side)
		if errors.Is(err, patch.ErrConflict) {
			e.log.Debug("conflict", zap.String("path", rel), zap.String("pass", string(p.id)))
			report.Add(conflicts.Conflict{
				Path:        rel,
				Message:     conflicts.DefaultMessage,
				Attribution: conflicts.Attribution(p.branch, report.Ancestor),
				Pass:        p.id,
				Regions:     conflicts.Overlaps(ancestor, current, side),
			})
			continue
		}
		if err != nil {
			return fmt.Errorf("merge %s: %w", rel, err)
		}
		if merged == current && fileExists(v.Path, rel) {
			continue
		}
		if err := store.WriteFile(v.Path, rel, merged); err != nil {
			return err
		}
		if err := store.WriteFile(e.h.Root(), rel, merged); err != nil {
			return err
		}
	}
	return nil
}

func fileExists(dir, rel string) bool {
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	return err == nil
}

func (e *Executor) discard(log *zap.Logger, id store.VersionID) {
	if err := e.h.Versions().Discard(id); err != nil {
		log.Warn("failed to discard merge version", zap.Error(err))
	}
}

func (e *Executor) onActiveLog(id store.VersionID) bool {
	branches := e.h.Branches()
	active, err := branches.ActiveBranchID()
	if err != nil {
		return false
	}
	entries, err := branches.ActivityLog(active)
	if err != nil {
		return false
	}
	return slices.Contains(entries, id)
}

// saveConflicts writes report to ConflictsFileName in the control dir and
// returns the file's path.
func (e *Executor) saveConflicts(report *conflicts.Report) (string, error) {
	data, err := report.ToJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.h.ControlDir(), ConflictsFileName)
	if err := store.AtomicWriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", store.ErrIO, path, err)
	}
	return path, nil
}

// clearConflicts removes a report left by an earlier conflicting merge.
func (e *Executor) clearConflicts(log *zap.Logger) {
	path := filepath.Join(e.h.ControlDir(), ConflictsFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove conflict report", zap.String("path", path), zap.Error(err))
	}
}
