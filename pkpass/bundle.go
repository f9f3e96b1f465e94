package pkpass

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"go-pkpass/archive"
)

// Bundle is a multi-pass archive (.pkpasses). It does not parse the passes it
// contains; use Pass or feed PassData into FromBytes.
type Bundle struct {
	archive *archive.Archive
}

// BundleFromBytes opens a multi-pass archive. The data is copied.
func BundleFromBytes(data []byte) (*Bundle, error) {
	arc, err := archive.Open(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return &Bundle{archive: arc}, nil
}

func BundleFromFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to open pass bundle", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read pass bundle: %w", err)
	}
	return BundleFromBytes(data)
}

// Entries lists the file names in the bundle.
func (b *Bundle) Entries() []string {
	return b.archive.Entries()
}

// PassData returns the bytes of entry name, or nil if there is no such entry.
func (b *Bundle) PassData(name string) []byte {
	data, err := b.archive.ReadFile(name)
	if err != nil {
		slog.Debug("Bundle entry not readable", "name", name, "error", err)
		return nil
	}
	return data
}

// Pass loads entry name as a Document.
func (b *Bundle) Pass(name string, opts ...Option) (*Document, error) {
	if !b.archive.Has(name) {
		return nil, fmt.Errorf("%w: %s", archive.ErrNotFound, name)
	}
	return FromBytes(b.PassData(name), opts...)
}
