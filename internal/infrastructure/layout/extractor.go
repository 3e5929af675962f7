package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/layoutverifier/backend/internal/domain"
)

// Supported layout extensions
const (
	ExtPDF = ".pdf"
	ExtAI  = ".ai"
)

// BarcodeDecoder decodes barcodes printed on a layout. Decoded payloads are
// appended to the layout text so they can be matched like any other value.
type BarcodeDecoder interface {
	Decode(ctx context.Context, path string) ([]string, error)
}

// ExtractorConfig holds configuration for the text extractor
type ExtractorConfig struct {
	// Barcodes is optional.
	Barcodes BarcodeDecoder
}

// Extractor reads text from PDF and Illustrator layouts
type Extractor struct {
	barcodes BarcodeDecoder
}

// NewExtractor creates a new layout text extractor. Without a barcode decoder
// it warns once that values printed only as barcodes cannot be found.
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.Barcodes == nil {
		slog.Warn("barcode decoding not available, values printed only as barcodes will be reported missing")
	}
	return &Extractor{barcodes: config.Barcodes}
}

// ExtractText returns the text of all pages of the layout joined by spaces.
// Illustrator files that do not parse as PDF fall back to their raw
// PostScript strings.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExtPDF && ext != ExtAI {
		return "", fmt.Errorf("%w: %q, use .pdf or .ai files", domain.ErrUnsupportedLayout, ext)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrLayoutNotFound, path)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLayoutUnreadable, err)
	}

	text, err := pdfText(path)
	if err != nil {
		if ext != ExtAI {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrLayoutUnreadable, filepath.Base(path), err)
		}

		raw, rawErr := os.ReadFile(path)
		if rawErr != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrLayoutUnreadable, filepath.Base(path), rawErr)
		}
		text = postscriptText(raw)
		if text == "" {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrLayoutUnreadable, filepath.Base(path), err)
		}
		slog.Debug("read illustrator file from raw strings", "layout", filepath.Base(path), "error", err)
	}

	if e.barcodes != nil {
		codes, err := e.barcodes.Decode(ctx, path)
		if err != nil {
			slog.Warn("barcode decoding failed", "layout", filepath.Base(path), "error", err)
		}
		for _, code := range codes {
			if code != "" {
				text += " " + code
			}
		}
	}

	return text, nil
}

// pdfText extracts the plain text of every page. The pdf package panics on
// some malformed files, so panics surface as errors.
func pdfText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	parts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if pageText != "" {
			parts = append(parts, pageText)
		}
	}

	return strings.Join(parts, " "), nil
}
