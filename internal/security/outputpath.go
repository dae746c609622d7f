// Package security keeps generated artefacts inside the directory the
// operator chose for them.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen bounds names derived from dataset identifiers.
const maxNameLen = 128

// SanitizeFilename maps an arbitrary identifier to a file name made of
// ASCII letters, digits, dot, underscore and dash. Runs of other
// characters become one underscore; an empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// ValidatePathWithinDirectory rejects paths that resolve outside dir.
// Resolution is lexical, so it works for paths that do not exist yet.
func ValidatePathWithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", path, dir)
	}
	return nil
}

// OutputPath returns dir/<sanitized id><ext>, checked to stay inside dir.
func OutputPath(dir, id, ext string) (string, error) {
	path := filepath.Join(dir, SanitizeFilename(id)+ext)
	if err := ValidatePathWithinDirectory(path, dir); err != nil {
		return "", err
	}
	return path, nil
}
