package dag

import (
	"fmt"
	"os"
	"strings"

	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/ui"
)

// Diagram describes a merge outcome for RenderDiagram.
type Diagram struct {
	Receiving     string // receiving branch name
	Incoming      string // incoming branch name
	ReceivingTip  store.VersionID
	IncomingTip   store.VersionID
	Ancestor      store.VersionID
	Merged        store.VersionID // empty while conflicts are pending
	Message       string
	ConflictCount int
	Colorize      bool
}

type glyphSet struct {
	vertical, left, right, line, tee rune
}

var (
	unicodeSet = glyphSet{'│', '╰', '╯', '─', '┬'}
	asciiSet   = glyphSet{'|', '\\', '/', '-', '+'}
)

var forceUnicode *bool

// SetUnicode forces Unicode (true) or ASCII (false) glyphs.
func SetUnicode(v bool) { forceUnicode = &v }

// ResetUnicode restores locale-based glyph detection.
func ResetUnicode() { forceUnicode = nil }

func glyphs() glyphSet {
	if forceUnicode != nil {
		if *forceUnicode {
			return unicodeSet
		}
		return asciiSet
	}
	for _, env := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if val := strings.ToUpper(os.Getenv(env)); val != "" {
			if strings.Contains(val, "UTF-8") || strings.Contains(val, "UTF8") {
				return unicodeSet
			}
			return asciiSet
		}
	}
	return asciiSet
}

// ShortID trims a version id to its random component.
func ShortID(v store.VersionID) string {
	s := string(v)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// cell is a piece of text centred on a column. width is the visible width
// of text, which may carry ANSI escapes.
type cell struct {
	text   string
	width  int
	center int
}

func plain(s string, center int) cell {
	return cell{text: s, width: len([]rune(s)), center: center}
}

func row(cells ...cell) string {
	var sb strings.Builder
	col := 0
	for _, c := range cells {
		start := c.center - c.width/2
		if start > col {
			sb.WriteString(strings.Repeat(" ", start-col))
			col = start
		}
		sb.WriteString(c.text)
		col += c.width
	}
	return sb.String()
}

// RenderDiagram draws the two tips converging on the merged version:
//
//	main        feature
//	 |             |
//	A1B2C3D4    E5F6A7B8
//	 \------+------/
//	     9C0D1E2F
func RenderDiagram(d Diagram) string {
	g := glyphs()
	style := func(f func(string) string, s string) string {
		if d.Colorize {
			return f(s)
		}
		return s
	}

	leftID, rightID := ShortID(d.ReceivingTip), ShortID(d.IncomingTip)
	merged := ShortID(d.Merged)
	pending := d.Merged == ""
	if pending {
		merged = "(pending)"
	}

	const pad, gap, idWidth = 4, 8, 8
	leftW := max(len([]rune(d.Receiving)), idWidth)
	rightW := max(len([]rune(d.Incoming)), idWidth)
	left := pad + leftW/2
	right := left + leftW/2 + gap + rightW/2
	mid := (left + right) / 2

	styled := func(f func(string) string, s string, center int) cell {
		c := plain(s, center)
		c.text = style(f, s)
		return c
	}

	lines := []string{
		row(styled(ui.Green, d.Receiving, left), styled(ui.Green, d.Incoming, right)),
		row(styled(ui.Dim, string(g.vertical), left), styled(ui.Dim, string(g.vertical), right)),
		row(styled(ui.Yellow, leftID, left), styled(ui.Yellow, rightID, right)),
		style(ui.Dim, connector(left, right, mid, g)),
	}
	mergedStyle := ui.Yellow
	if pending {
		mergedStyle = ui.Red
	}
	lines = append(lines, row(styled(mergedStyle, merged, mid)))
	if d.Message != "" {
		lines = append(lines, row(styled(ui.Bold, d.Message, mid)))
	}
	if pending && d.ConflictCount > 0 {
		lines = append(lines, row(styled(ui.Red, fmt.Sprintf("(%d conflicts to resolve)", d.ConflictCount), mid)))
	}
	if d.Ancestor != "" {
		lines = append(lines, row(styled(ui.Dim, "(base: "+ShortID(d.Ancestor)+")", mid)))
	}
	return strings.Join(lines, "\n")
}

func connector(left, right, mid int, g glyphSet) string {
	runes := make([]rune, right+1)
	for i := range runes {
		switch {
		case i < left:
			runes[i] = ' '
		case i == left:
			runes[i] = g.left
		case i == right:
			runes[i] = g.right
		case i == mid:
			runes[i] = g.tee
		default:
			runes[i] = g.line
		}
	}
	return string(runes)
}
