package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/layoutverifier/backend/internal/domain"
)

// WriterFunc renders a verification summary in one report format
type WriterFunc func(w io.Writer, summary *domain.VerificationSummary) error

type format struct {
	write       WriterFunc
	extension   string
	contentType string
}

// Writer registry (format -> handler). Formats register themselves in init().
var formats = map[string]format{}

// now stamps generated reports
var now = time.Now

// Register adds or replaces a report format
func Register(name, extension, contentType string, fn WriterFunc) {
	formats[name] = format{write: fn, extension: extension, contentType: contentType}
}

// Formats returns the registered format names, sorted
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether a writer is registered for name
func Supported(name string) bool {
	_, ok := formats[name]
	return ok
}

// Extension returns the file extension for a format, including the dot
func Extension(name string) string {
	return formats[name].extension
}

// ContentType returns the MIME type for a format
func ContentType(name string) string {
	if f, ok := formats[name]; ok {
		return f.contentType
	}
	return "application/octet-stream"
}

// Write renders summary to w in the named format
func Write(name string, w io.Writer, summary *domain.VerificationSummary) error {
	f, ok := formats[name]
	if !ok {
		return fmt.Errorf("%w: %q (no writer registered)", domain.ErrUnsupportedFormat, name)
	}
	return f.write(w, summary)
}

// Render returns the report as bytes
func Render(name string, summary *domain.VerificationSummary) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(name, &buf, summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the report to path, creating parent directories
func Save(path, name string, summary *domain.VerificationSummary) error {
	content, err := Render(name, summary)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
