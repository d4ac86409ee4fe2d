package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// SanitizeFilename cleans a string to be safe as a filename:
// - Replace spaces with underscores
// - Replace forbidden characters with underscores
// - Trim duplicated underscores
// - Truncate to a reasonable length (~200 runes)
func SanitizeFilename(s string) string {
	if s == "" {
		return "untitled"
	}
	// Normalize spaces
	s = strings.ReplaceAll(s, " ", "_")
	// Replace forbidden characters
	forbidden := `[]/\:*?"<>|#%{}$!@+^~\` + "`" + `=&;`
	for _, r := range forbidden {
		s = strings.ReplaceAll(s, string(r), "_")
	}
	// Collapse runs of underscores
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "._-")

	// Truncate to 200 runes while preserving UTF-8 integrity
	const maxRunes = 200
	if utf8.RuneCountInString(s) > maxRunes {
		var b strings.Builder
		b.Grow(len(s))
		count := 0
		for _, r := range s {
			if count >= maxRunes {
				break
			}
			b.WriteRune(r)
			count++
		}
		s = b.String()
	}

	if s == "" {
		return "untitled"
	}
	return s
}

// NextFreePath returns dir/base+ext, or dir/base-N+ext for the smallest N >= 1
// that does not exist yet. Existing files are never returned.
func NextFreePath(dir, base, ext string) (string, error) {
	candidate := filepath.Join(dir, base+ext)
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".versereel-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
