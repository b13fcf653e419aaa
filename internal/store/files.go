package store

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadOrEmpty reads a file under dir. A missing file reads as "", which is
// how a path created on one side of a merge gets an empty baseline.
func ReadOrEmpty(dir, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read %s: %v", ErrIO, rel, err)
	}
	return string(data), nil
}

// WriteFile writes content to rel under dir, creating parent directories.
func WriteFile(dir, rel, content string) error {
	target := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: create parent of %s: %v", ErrIO, rel, err)
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(target, []byte(content), mode); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, rel, err)
	}
	return nil
}

// CopyTree recursively copies every regular file under src into dest,
// preserving permissions. Existing files in dest are overwritten.
func CopyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return CopyFile(path, target, info.Mode().Perm())
	})
}

// CopyFile copies a single file, creating dest's parent directories.
func CopyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
