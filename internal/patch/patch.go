// Package patch computes line-level diffs between text blobs and produces
// textual patches that can be applied to other content.
//
// Lines keep their trailing newline, so "a" and "a\n" are different lines.
// Apply is strict: a hunk applies only where its context and removed lines
// appear verbatim in the target. A mismatch is reported as ErrConflict.
package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// ErrConflict is returned by Apply when a hunk does not match the target.
var ErrConflict = errors.New("patch does not apply")

// Op is the kind of a patch line.
type Op int

const (
	OpContext Op = iota
	OpDelete
	OpInsert
)

func (o Op) symbol() byte {
	switch o {
	case OpDelete:
		return '-'
	case OpInsert:
		return '+'
	default:
		return ' '
	}
}

// Line is a single line of a hunk.
type Line struct {
	Op   Op
	Text string
}

// Hunk is a contiguous region of change plus its surrounding context.
// OldStart and NewStart are zero-based line indexes.
type Hunk struct {
	OldStart int
	NewStart int
	Lines    []Line
}

// Old returns the lines the hunk expects to find in the target.
func (h Hunk) Old() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Op != OpInsert {
			out = append(out, l.Text)
		}
	}
	return out
}

// New returns the lines the hunk leaves behind.
func (h Hunk) New() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Op != OpDelete {
			out = append(out, l.Text)
		}
	}
	return out
}

// Patch is an ordered list of hunks turning one text into another.
type Patch struct {
	Hunks []Hunk
	// BaseLines is the line count of the text the patch was made from.
	// Insertion-only hunks of a patch made from empty text apply only to
	// empty content.
	BaseLines int
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool { return p == nil || len(p.Hunks) == 0 }

// Stat counts added and removed lines.
type Stat struct {
	Added   int
	Removed int
}

// Changed reports whether any line was added or removed.
func (s Stat) Changed() bool { return s.Added > 0 || s.Removed > 0 }

// Range is a half-open span [Start, End) of base line indexes touched by a
// change. A pure insertion has Start == End.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether two ranges touch. Adjacent insertions at the
// same position count as overlapping.
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Make returns a patch from base to target with DefaultContext lines of context.
func Make(base, target string) *Patch {
	return MakeContext(base, target, DefaultContext)
}

// MakeContext returns a patch from base to target keeping context
// unchanged lines around each change. Changes separated by no more than
// 2*context unchanged lines share a hunk.
func MakeContext(base, target string, context int) *Patch {
	if context < 0 {
		context = 0
	}
	edits := lineEdits(base, target)

	oldPos := make([]int, len(edits)+1)
	newPos := make([]int, len(edits)+1)
	for i, e := range edits {
		oldPos[i+1] = oldPos[i]
		newPos[i+1] = newPos[i]
		if e.Op != OpInsert {
			oldPos[i+1]++
		}
		if e.Op != OpDelete {
			newPos[i+1]++
		}
	}

	p := &Patch{BaseLines: oldPos[len(edits)]}
	i := 0
	for i < len(edits) {
		if edits[i].Op == OpContext {
			i++
			continue
		}

		start := max(i-context, 0)

		end := i
		for {
			for end < len(edits) && edits[end].Op != OpContext {
				end++
			}
			run := 0
			for end+run < len(edits) && edits[end+run].Op == OpContext {
				run++
			}
			if end+run < len(edits) && run <= 2*context {
				end += run
				continue
			}
			break
		}
		stop := min(end+context, len(edits))

		p.Hunks = append(p.Hunks, Hunk{
			OldStart: oldPos[start],
			NewStart: newPos[start],
			Lines:    append([]Line(nil), edits[start:stop]...),
		})
		i = stop
	}
	return p
}

// Apply applies p to content. Hunks are applied in order; each one must
// match at its expected position or at the nearest offset after the
// previous hunk.
func Apply(content string, p *Patch) (string, error) {
	if p.Empty() {
		return content, nil
	}

	lines := SplitLines(content)
	shift := 0
	floor := 0
	for n, h := range p.Hunks {
		old := h.Old()
		pos, ok := locate(lines, old, h.OldStart+shift, floor, p.BaseLines == 0)
		if !ok {
			return "", fmt.Errorf("%w: hunk %d at line %d", ErrConflict, n+1, h.OldStart+1)
		}
		repl := h.New()
		lines = splice(lines, pos, len(old), repl)
		shift = pos - h.OldStart + len(repl) - len(old)
		floor = pos + len(repl)
	}
	return strings.Join(lines, ""), nil
}

// Summarize counts the lines added and removed going from one text to another.
func Summarize(from, to string) Stat {
	var s Stat
	for _, e := range lineEdits(from, to) {
		switch e.Op {
		case OpInsert:
			s.Added++
		case OpDelete:
			s.Removed++
		}
	}
	return s
}

// ChangedRanges returns the base line ranges modified going from base to
// modified, in ascending order.
func ChangedRanges(base, modified string) []Range {
	var ranges []Range
	pos := 0
	var cur *Range
	for _, e := range lineEdits(base, modified) {
		if e.Op == OpContext {
			if cur != nil {
				ranges = append(ranges, *cur)
				cur = nil
			}
			pos++
			continue
		}
		if cur == nil {
			cur = &Range{Start: pos, End: pos}
		}
		if e.Op == OpDelete {
			pos++
			cur.End = pos
		}
	}
	if cur != nil {
		ranges = append(ranges, *cur)
	}
	return ranges
}

// String renders the patch in unified diff form.
func (p *Patch) String() string {
	var b strings.Builder
	for _, h := range p.Hunks {
		oldN, newN := len(h.Old()), len(h.New())
		fmt.Fprintf(&b, "@@ -%s +%s @@\n", span(h.OldStart, oldN), span(h.NewStart, newN))
		for _, l := range h.Lines {
			b.WriteByte(l.Op.symbol())
			b.WriteString(l.Text)
			if !strings.HasSuffix(l.Text, "\n") {
				b.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	return b.String()
}

func span(start, n int) string {
	if n == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	return fmt.Sprintf("%d,%d", start+1, n)
}

// SplitLines splits s into lines, each keeping its trailing newline. The
// last line has no newline when s does not end with one.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// locate finds where old occurs in lines, searching outward from want but
// never before floor. A hunk with no old lines has nothing to match: it is
// anchored at want, or fits only empty content when fromEmpty is set.
func locate(lines, old []string, want, floor int, fromEmpty bool) (int, bool) {
	if len(old) == 0 {
		if fromEmpty {
			return 0, len(lines) == 0
		}
		want = max(want, floor)
		return want, want <= len(lines)
	}
	last := len(lines) - len(old)
	if last < floor {
		return 0, false
	}
	want = min(max(want, floor), last)

	for d := 0; want-d >= floor || want+d <= last; d++ {
		if hi := want + d; hi <= last && matchAt(lines, old, hi) {
			return hi, true
		}
		if lo := want - d; d > 0 && lo >= floor && matchAt(lines, old, lo) {
			return lo, true
		}
	}
	return 0, false
}

func matchAt(lines, old []string, pos int) bool {
	for i, l := range old {
		if lines[pos+i] != l {
			return false
		}
	}
	return true
}

func splice(lines []string, pos, n int, repl []string) []string {
	out := make([]string, 0, len(lines)-n+len(repl))
	out = append(out, lines[:pos]...)
	out = append(out, repl...)
	return append(out, lines[pos+n:]...)
}

// lineEdits diffs base and target line by line. Each distinct line is
// mapped to one rune so diffmatchpatch can diff whole lines; the surrogate
// block is skipped because those runes do not survive string conversion.
func lineEdits(base, target string) []Line {
	table := []string{}
	index := map[string]rune{}
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, l := range lines {
			r, ok := index[l]
			if !ok {
				r = lineRune(len(table))
				index[l] = r
				table = append(table, l)
			}
			out[i] = r
		}
		return out
	}
	a := encode(SplitLines(base))
	b := encode(SplitLines(target))

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(a, b, false)

	var edits []Line
	for _, d := range diffs {
		op := OpContext
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, r := range d.Text {
			edits = append(edits, Line{Op: op, Text: table[runeIndex(r)]})
		}
	}
	return edits
}

const (
	surrogateMin  = 0xD800
	surrogateSpan = 0x800
)

func lineRune(i int) rune {
	if i >= surrogateMin {
		i += surrogateSpan
	}
	return rune(i)
}

func runeIndex(r rune) int {
	i := int(r)
	if i >= surrogateMin+surrogateSpan {
		i -= surrogateSpan
	}
	return i
}
