package merge

import (
	"fmt"
	"io"
	"strings"

	"github.com/epiclabs-io/diff3"

	"github.com/ankitiscracked/mygit/internal/config"
	"github.com/ankitiscracked/mygit/internal/patch"
)

// ThreeWayMerger merges one side's changes (ancestor -> side) into current.
// It returns patch.ErrConflict when they cannot be combined.
type ThreeWayMerger interface {
	Merge(ancestor, current, side string) (string, error)
	Name() string
}

// PatchMerger diffs ancestor against side and applies the result to
// current. A hunk whose context no longer matches is a conflict.
type PatchMerger struct {
	Context int
}

func (PatchMerger) Name() string { return config.StrategyPatch }

func (m PatchMerger) Merge(ancestor, current, side string) (string, error) {
	if current == side {
		return current, nil
	}
	return patch.Apply(current, patch.MakeContext(ancestor, side, m.Context))
}

// Diff3Merger performs a line-level three-way merge. Any conflict block
// fails the file.
type Diff3Merger struct{}

func (Diff3Merger) Name() string { return config.StrategyDiff3 }

func (Diff3Merger) Merge(ancestor, current, side string) (string, error) {
	switch {
	case current == side, side == ancestor:
		return current, nil
	case current == ancestor:
		return side, nil
	}

	// diff3.Merge(a=current, o=ancestor, b=side)
	result, err := diff3.Merge(
		strings.NewReader(current),
		strings.NewReader(ancestor),
		strings.NewReader(side),
		true, "current", "incoming",
	)
	if err != nil {
		return "", fmt.Errorf("diff3 merge failed: %w", err)
	}
	if result.Conflicts {
		return "", patch.ErrConflict
	}
	merged, err := io.ReadAll(result.Result)
	if err != nil {
		return "", fmt.Errorf("failed to read merge result: %w", err)
	}
	return string(merged), nil
}

// MergerByName returns the strategy registered under name.
func MergerByName(name string, context int) (ThreeWayMerger, error) {
	switch name {
	case "", config.StrategyPatch:
		return PatchMerger{Context: context}, nil
	case config.StrategyDiff3:
		return Diff3Merger{}, nil
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", name)
	}
}
