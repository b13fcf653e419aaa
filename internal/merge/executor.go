// Package merge integrates another branch into the active one, either by
// fast-forwarding the active branch's history or by building a merge
// version from both sides' changes since their common ancestor.
package merge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/conflicts"
	"github.com/ankitiscracked/mygit/internal/dag"
	"github.com/ankitiscracked/mygit/internal/repo"
	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/workspace"
)

// BranchRef names a branch both ways.
type BranchRef struct {
	ID   branch.ID `json:"id"`
	Name string    `json:"name"`
}

// FileStat is a per-file line summary.
type FileStat struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Result describes what a merge did.
type Result struct {
	Relation     dag.Relation      `json:"-"`
	Kind         string            `json:"kind"`
	Receiving    BranchRef         `json:"receiving"`
	Incoming     BranchRef         `json:"incoming"`
	Ancestor     store.VersionID   `json:"ancestor,omitempty"`
	ReceivingTip store.VersionID   `json:"receiving_tip,omitempty"`
	IncomingTip  store.VersionID   `json:"incoming_tip,omitempty"`
	Version      store.VersionID   `json:"version,omitempty"` // merge version, three-way only
	Message      string            `json:"message,omitempty"`
	Strategy     string            `json:"strategy,omitempty"`
	Files        []FileStat        `json:"files,omitempty"`
	Conflicts    *conflicts.Report `json:"conflicts,omitempty"`
	// ConflictsFile is where the conflict report was saved, if anywhere.
	ConflictsFile string                `json:"conflicts_file,omitempty"`
	Tree          *workspace.SyncResult `json:"-"`
}

// Executor runs merges against an open repository.
type Executor struct {
	h      *repo.Handle
	merger ThreeWayMerger
	log    *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMerger overrides the configured file merge strategy.
func WithMerger(m ThreeWayMerger) Option {
	return func(e *Executor) { e.merger = m }
}

// New creates an Executor using the repository's configured strategy.
func New(h *repo.Handle, opts ...Option) (*Executor, error) {
	e := &Executor{h: h, log: h.Logger().Named("merge")}
	for _, opt := range opts {
		opt(e)
	}
	if e.merger == nil {
		cfg := h.Config().Merge
		m, err := MergerByName(cfg.Strategy, cfg.Context)
		if err != nil {
			return nil, err
		}
		e.merger = m
	}
	return e, nil
}

// Run merges the branch called branchName into the active branch.
//
// On conflicts Run returns the populated Result together with ErrConflicts;
// the in-progress version is discarded and no branch log or HEAD changes.
func (e *Executor) Run(branchName string) (*Result, error) {
	branches := e.h.Branches()
	name := strings.TrimSpace(branchName)

	incomingID, err := branches.ResolveSystemName(name)
	if err != nil {
		return nil, err
	}
	receivingID, err := branches.ActiveBranchID()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Receiving: BranchRef{ID: receivingID, Name: branches.Name(receivingID)},
		Incoming:  BranchRef{ID: incomingID, Name: name},
		Strategy:  e.merger.Name(),
	}
	log := e.log.With(zap.String("receiving", res.Receiving.Name), zap.String("incoming", name))

	receiving, err := branches.ActivityLog(receivingID)
	if err != nil {
		return nil, err
	}
	incoming, err := branches.ActivityLog(incomingID)
	if err != nil {
		return nil, err
	}
	if len(incoming) == 0 {
		return nil, fmt.Errorf("branch %s: %w", name, ErrNothingToMerge)
	}

	base := dag.Resolve(receiving, incoming)
	res.Relation = base.Relation
	res.Kind = base.Relation.String()
	res.IncomingTip = incoming[0]
	if len(receiving) > 0 {
		res.ReceivingTip = receiving[0]
	}
	log.Debug("resolved merge base",
		zap.Stringer("relation", base.Relation),
		zap.String("ancestor", string(base.Ancestor)),
		zap.Int("index", base.Index))

	switch base.Relation {
	case dag.UpToDate:
		return res, nil
	case dag.Unrelated:
		return nil, ErrUnrelatedHistories
	case dag.FastForward:
		res.Ancestor = base.Ancestor
		return res, e.fastForward(res, receiving, incoming, base.Index)
	default:
		res.Ancestor = base.Ancestor
		merged, err := e.alreadyMerged(receiving, base.Ancestor, res.IncomingTip)
		if err != nil {
			return nil, err
		}
		if merged {
			log.Debug("incoming tip already merged", zap.String("tip", string(res.IncomingTip)))
			res.Relation = dag.UpToDate
			res.Kind = dag.UpToDate.String()
			return res, nil
		}
		return e.threeWay(res)
	}
}

// alreadyMerged reports whether a receiving version newer than ancestor
// recorded tip as its merged-in side.
func (e *Executor) alreadyMerged(receiving []store.VersionID, ancestor, tip store.VersionID) (bool, error) {
	for _, v := range receiving {
		if v == ancestor {
			break
		}
		from, err := e.h.Versions().MergedFrom(v)
		if err != nil {
			return false, err
		}
		if from == tip {
			return true, nil
		}
	}
	return false, nil
}
