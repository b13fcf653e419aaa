// Package conflicts records files whose changes could not be merged.
package conflicts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ankitiscracked/mygit/internal/patch"
)

// DefaultMessage is the message recorded for a failed patch application.
const DefaultMessage = "Conflict detected when applying patch"

// Pass identifies which side's changes were being applied.
type Pass string

const (
	// PassReceiving applies the receiving branch's changes.
	PassReceiving Pass = "A"
	// PassIncoming applies the incoming branch's changes.
	PassIncoming Pass = "B"
)

// Region is a line range (0-based, in ancestor coordinates) changed by
// both sides.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Conflict is a single file that could not be merged.
type Conflict struct {
	Path        string   `json:"path"`
	Message     string   `json:"message"`
	Attribution string   `json:"attribution"`
	Pass        Pass     `json:"pass"`
	Regions     []Region `json:"regions,omitempty"`
}

// Attribution names the two sides of a failed application.
func Attribution(branchName, ancestor string) string {
	return branchName + " onto " + ancestor
}

// Report collects conflicts per pass in processing order.
type Report struct {
	Ancestor string     `json:"ancestor"`
	PassA    []Conflict `json:"pass_a"`
	PassB    []Conflict `json:"pass_b"`
}

// Add records c under its pass.
func (r *Report) Add(c Conflict) {
	if c.Message == "" {
		c.Message = DefaultMessage
	}
	if c.Pass == PassReceiving {
		r.PassA = append(r.PassA, c)
		return
	}
	c.Pass = PassIncoming
	r.PassB = append(r.PassB, c)
}

// All returns Pass A conflicts followed by Pass B conflicts.
func (r *Report) All() []Conflict {
	if r == nil {
		return nil
	}
	out := make([]Conflict, 0, len(r.PassA)+len(r.PassB))
	out = append(out, r.PassA...)
	return append(out, r.PassB...)
}

// HasConflicts returns true if there are any conflicts
func (r *Report) HasConflicts() bool {
	return r != nil && len(r.PassA)+len(r.PassB) > 0
}

// Paths returns the conflicting paths in reporting order. A path that
// failed in both passes appears once.
func (r *Report) Paths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, c := range r.All() {
		if !seen[c.Path] {
			seen[c.Path] = true
			paths = append(paths, c.Path)
		}
	}
	return paths
}

// ToJSON converts the report to JSON
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatSummary returns a human-readable summary
func (r *Report) FormatSummary() string {
	if !r.HasConflicts() {
		return "No conflicts"
	}
	regions := 0
	for _, c := range r.All() {
		regions += len(c.Regions)
	}
	files := len(r.Paths())
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	if regions == 0 {
		return fmt.Sprintf("%d conflicting %s", files, noun)
	}
	return fmt.Sprintf("%d conflicting %s with %d overlapping regions", files, noun, regions)
}

// Format renders one line per conflict: path, message and attribution.
func (r *Report) Format() string {
	var sb strings.Builder
	for _, c := range r.All() {
		fmt.Fprintf(&sb, "%s: %s (%s)\n", c.Path, c.Message, c.Attribution)
	}
	return sb.String()
}

// Overlaps returns the line regions of ancestor changed by both ours and
// theirs. Adjacent edits count as overlapping.
func Overlaps(ancestor, ours, theirs string) []Region {
	a := patch.ChangedRanges(ancestor, ours)
	b := patch.ChangedRanges(ancestor, theirs)

	var regions []Region
	for _, ra := range a {
		for _, rb := range b {
			if !ra.Overlaps(rb) {
				continue
			}
			regions = append(regions, Region{
				Start: min(ra.Start, rb.Start),
				End:   max(ra.End, rb.End),
			})
		}
	}
	return regions
}
