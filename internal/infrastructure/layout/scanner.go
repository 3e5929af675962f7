package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/layoutverifier/backend/internal/domain"
)

// ItemNumberFunc parses the item number out of a layout filename
type ItemNumberFunc func(filename string) (string, bool)

// Scanner lists layout files of a directory
type Scanner struct {
	itemNumber ItemNumberFunc
}

// NewScanner creates a scanner pairing each file with the item number parsed by fn
func NewScanner(fn ItemNumberFunc) *Scanner {
	return &Scanner{itemNumber: fn}
}

// Scan returns the files of dir whose extension matches ext, case-insensitively,
// sorted by name. Files without an item number are skipped.
func (s *Scanner) Scan(dir, ext string) ([]domain.LayoutFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", domain.ErrLayoutNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrLayoutNotFound, dir)
	}

	// os.ReadDir returns entries sorted by filename
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading layouts directory: %w", err)
	}

	layouts := make([]domain.LayoutFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !HasExtension(entry.Name(), ext) {
			continue
		}

		itemNumber, ok := s.itemNumber(entry.Name())
		if !ok {
			slog.Warn("could not extract item number from filename", "file", entry.Name())
			continue
		}

		layouts = append(layouts, domain.LayoutFile{
			Path:       filepath.Join(dir, entry.Name()),
			Name:       entry.Name(),
			ItemNumber: itemNumber,
		})
	}

	if len(layouts) == 0 {
		slog.Warn("no layout files found", "dir", dir, "extension", ext)
	} else {
		slog.Info("layout files found", "dir", filepath.Base(dir), "count", len(layouts), "extension", ext)
	}

	return layouts, nil
}

// HasExtension reports whether name ends in ext, ignoring case
func HasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}
