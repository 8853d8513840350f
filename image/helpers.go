package image

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dreamlayer/logger"
)

var (
	// ErrUnsafePath is returned for names that would escape their directory.
	ErrUnsafePath = errors.New("invalid file path")
	// ErrNotImage is returned when content does not sniff as an image.
	ErrNotImage = errors.New("file is not an image")
)

// SafeJoin resolves name inside dir, rejecting anything that is not a plain
// file name.
func SafeJoin(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.ContainsRune(name, 0) {
		logger.Warn("Rejected file path", "file", name)
		return "", ErrUnsafePath
	}

	base, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	path := filepath.Join(base, name)
	if filepath.Dir(path) != base {
		return "", ErrUnsafePath
	}

	return path, nil
}

// ContentType sniffs the first bytes of data.
func ContentType(data []byte) string {
	return http.DetectContentType(data)
}

func IsImage(data []byte) bool {
	return strings.HasPrefix(ContentType(data), "image/")
}

// SanitizeName keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	clean := strings.Trim(b.String(), ".")
	if clean == "" {
		return "upload"
	}
	return clean
}

// ListFiles returns the regular files in dir whose extension (case
// insensitive) is one of exts, sorted by name.
func ListFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	return files, nil
}
