package merge

import "errors"

var (
	// ErrNothingToMerge means the incoming branch has no versions.
	ErrNothingToMerge = errors.New("nothing to merge")
	// ErrUnrelatedHistories means the two branches share no version.
	ErrUnrelatedHistories = errors.New("branches have unrelated history and cannot be merged")
	// ErrConflicts is returned alongside a Result whose Conflicts report
	// lists the files that could not be merged.
	ErrConflicts = errors.New("merge encountered conflicts")
)
