// Package dag classifies the relationship between two branch histories and
// renders small diagrams of merge outcomes.
package dag

import "github.com/ankitiscracked/mygit/internal/store"

// Relation describes how an incoming history relates to a receiving one.
type Relation int

const (
	// Unrelated means the two histories share no version.
	Unrelated Relation = iota
	// UpToDate means both tips are the same version.
	UpToDate
	// FastForward means the receiving tip is the common ancestor.
	FastForward
	// ThreeWay means both sides moved past the common ancestor.
	ThreeWay
)

func (r Relation) String() string {
	switch r {
	case UpToDate:
		return "up-to-date"
	case FastForward:
		return "fast-forward"
	case ThreeWay:
		return "three-way"
	default:
		return "unrelated"
	}
}

// MergeBase is the outcome of Resolve. Ancestor and Index are only set when
// a common version was found; Index is the ancestor's position in the
// incoming log, so incoming[:Index] are the versions the receiving side lacks.
type MergeBase struct {
	Relation Relation
	Ancestor store.VersionID
	Index    int
}

// Resolve finds the most recent version of incoming that also appears in
// receiving. Both logs are newest first and linear.
func Resolve(receiving, incoming []store.VersionID) MergeBase {
	if len(receiving) > 0 && len(incoming) > 0 && receiving[0] == incoming[0] {
		return MergeBase{Relation: UpToDate, Ancestor: receiving[0], Index: 0}
	}

	seen := make(map[store.VersionID]struct{}, len(receiving))
	for _, v := range receiving {
		seen[v] = struct{}{}
	}

	for i, v := range incoming {
		if _, ok := seen[v]; !ok {
			continue
		}
		base := MergeBase{Relation: ThreeWay, Ancestor: v, Index: i}
		if v == receiving[0] {
			base.Relation = FastForward
		}
		return base
	}
	return MergeBase{Relation: Unrelated, Index: -1}
}
