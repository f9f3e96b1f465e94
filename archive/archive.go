// Package archive provides read-only access to the ZIP containers used by
// pass bundles (.pkpass) and multi-pass bundles (.pkpasses).
//
// The whole container is held in memory; entries are decompressed on demand
// every time they are read, callers that need memoization do it themselves.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/zip"
)

var ErrNotFound = errors.New("archive: entry not found")

// Archive is an opened ZIP container.
type Archive struct {
	files map[string]*zip.File
	dirs  map[string]struct{}
	names []string
}

// Open parses data as a ZIP container. The slice is referenced, not copied,
// and must not be modified while the archive is in use.
func Open(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip container: %w", err)
	}

	a := &Archive{
		files: make(map[string]*zip.File, len(r.File)),
		dirs:  make(map[string]struct{}),
	}
	for _, f := range r.File {
		name := cleanName(f.Name)
		if name == "" {
			continue
		}
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			a.dirs[name] = struct{}{}
			continue
		}
		if _, dup := a.files[name]; dup {
			slog.Debug("Duplicate archive entry, keeping first", "entry", name)
			continue
		}
		a.files[name] = f
		a.names = append(a.names, name)

		// implicit parent directories, producers often omit explicit entries
		for dir := parentDir(name); dir != ""; dir = parentDir(dir) {
			a.dirs[dir] = struct{}{}
		}
	}

	slog.Debug("Archive opened", "entries", len(a.names), "directories", len(a.dirs))
	return a, nil
}

// Entries returns the paths of all file entries in archive order.
func (a *Archive) Entries() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Has reports whether a file entry exists at path.
func (a *Archive) Has(path string) bool {
	_, ok := a.files[cleanName(path)]
	return ok
}

// IsDir reports whether path names a directory, explicit or implied by a
// nested entry.
func (a *Archive) IsDir(path string) bool {
	_, ok := a.dirs[cleanName(path)]
	return ok
}

// ReadFile returns the decompressed contents of the file entry at path.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	f, ok := a.files[cleanName(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", path, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Debug("failed to close archive entry", "entry", path, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", path, err)
	}
	return data, nil
}

func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	return strings.Trim(name, "/")
}

func parentDir(name string) string {
	idx := strings.LastIndexByte(name, '/')
	if idx <= 0 {
		return ""
	}
	return name[:idx]
}
