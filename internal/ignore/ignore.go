package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ControlDir is the repository's metadata directory. It is never enumerated.
const ControlDir = ".mygit"

// DefaultPatterns are always ignored
var DefaultPatterns = []string{
	ControlDir + "/",
	".git/",
	"node_modules/",
}

// DefaultFiles are the ignore files consulted, in order. The first one
// that exists wins; later files are not merged in.
var DefaultFiles = []string{".mygitignore", ".gitignore"}

// Matcher handles ignore pattern matching
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob     string
	negated  bool
	dirOnly  bool
	anchored bool // pattern contains a slash; match against the full path
}

// NewMatcher creates a new ignore matcher from patterns
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		m.addPattern(p)
	}
	return m
}

// LoadFromFile loads ignore patterns from a file on top of DefaultPatterns.
// A missing file yields a matcher with just the defaults.
func LoadFromFile(file string, extra ...string) (*Matcher, error) {
	patterns := append(append([]string{}, DefaultPatterns...), extra...)

	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMatcher(patterns), nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	return NewMatcher(patterns), scanner.Err()
}

// LoadFromDir loads patterns from the first of names that exists in dir.
// With no names, DefaultFiles is used.
func LoadFromDir(dir string, names []string, extra ...string) (*Matcher, error) {
	if len(names) == 0 {
		names = DefaultFiles
	}
	for _, name := range names {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFromFile(candidate, extra...)
		}
	}
	return NewMatcher(append(append([]string{}, DefaultPatterns...), extra...)), nil
}

func (m *Matcher) addPattern(raw string) {
	p := pattern{}

	if strings.HasPrefix(raw, "!") {
		p.negated = true
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "/") {
		p.dirOnly = true
		raw = strings.TrimSuffix(raw, "/")
	}
	if strings.HasPrefix(raw, "/") {
		p.anchored = true
		raw = strings.TrimPrefix(raw, "/")
	} else if strings.Contains(raw, "/") {
		p.anchored = true
	}
	if raw == "" {
		return
	}
	p.glob = raw

	m.patterns = append(m.patterns, p)
}

// Match checks if a slash-separated relative path should be ignored.
// Later patterns override earlier ones, so a negation can re-include.
func (m *Matcher) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	name := path.Base(rel)

	ignored := false
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}

		var matched bool
		if p.anchored {
			matched, _ = path.Match(p.glob, rel)
		} else {
			matched, _ = path.Match(p.glob, name)
		}

		if matched {
			ignored = !p.negated
		}
	}

	return ignored
}

// ShouldInclude returns true if the path should be included (not ignored)
func (m *Matcher) ShouldInclude(rel string, isDir bool) bool {
	return !m.Match(rel, isDir)
}
