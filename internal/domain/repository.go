package domain

import (
	"context"
	"time"
)

// ProductCatalog gives read access to loaded product master data
type ProductCatalog interface {
	Len() int
	Product(itemNumber string) (Product, bool)
}

// CatalogLoader loads product master data from a spreadsheet.
// A nil or empty columns slice selects the default columns.
type CatalogLoader interface {
	Load(ctx context.Context, path string, columns []string) (ProductCatalog, error)
}

// LayoutTextExtractor returns all text found in a layout file as a single string
type LayoutTextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// LayoutScanner lists layout files of a directory with their item numbers
type LayoutScanner interface {
	Scan(dir, extension string) ([]LayoutFile, error)
}

// SpreadsheetColorizer colors spreadsheet cells from a field presence projection
// keyed by item number then field name.
type SpreadsheetColorizer interface {
	Colorize(ctx context.Context, path string, presence map[string]map[string]bool, outputPath string, columns []string) (*ColoringResult, error)
}

// SessionRepository defines the interface for web session storage
type SessionRepository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, session *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// ReportStore publishes generated files and hands out download links
type ReportStore interface {
	Upload(ctx context.Context, objectName, path, contentType string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
}
