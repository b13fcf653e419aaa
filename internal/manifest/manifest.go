// Package manifest enumerates the tracked files of a tree (a working
// directory or a version snapshot) and hashes their contents.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ankitiscracked/mygit/internal/ignore"
)

// Manifest is the ordered list of tracked file paths under a root.
// Paths are slash-separated and relative to Root.
type Manifest struct {
	Root  string
	Files []string
}

// Lister enumerates files while honoring a project's ignore rules.
type Lister struct {
	matcher *ignore.Matcher
}

// NewLister returns a Lister using m. A nil matcher applies only the
// default patterns.
func NewLister(m *ignore.Matcher) *Lister {
	if m == nil {
		m = ignore.NewMatcher(ignore.DefaultPatterns)
	}
	return &Lister{matcher: m}
}

// List returns the relative paths of regular files under root in lexical
// walk order. The order is stable for a given tree.
func (l *Lister) List(root string) ([]string, error) {
	m, err := l.Generate(root)
	if err != nil {
		return nil, err
	}
	return m.Files, nil
}

// Generate creates a manifest for a directory
func (l *Lister) Generate(root string) (*Manifest, error) {
	manifest := &Manifest{
		Root:  root,
		Files: []string{},
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if l.matcher.Match(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks and other special files are not tracked.
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		manifest.Files = append(manifest.Files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return manifest, nil
}

// HashFile computes the SHA-256 hash of a file
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
