package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/layoutverifier/backend/internal/domain"
)

// VerificationServiceConfig holds configuration for the verification service
type VerificationServiceConfig struct {
	Workers            int
	DefaultExtension   string
	EnableDebugLogging bool
}

// VerificationService runs verification of layout files against product master data
type VerificationService struct {
	catalogs  domain.CatalogLoader
	scanner   domain.LayoutScanner
	extractor domain.LayoutTextExtractor
	colorizer domain.SpreadsheetColorizer
	verifier  *ProductVerifier
	workers   int
	extension string
}

// BatchRequest asks for verification of every layout file in a directory.
// LayoutPaths, when set, replaces the directory scan.
type BatchRequest struct {
	ExcelPath   string
	LayoutsDir  string
	LayoutPaths []string
	Extension   string
	Columns     []string
}

// SingleRequest asks for verification of one layout file.
// ItemNumber overrides the item number parsed from the filename.
type SingleRequest struct {
	ExcelPath  string
	LayoutPath string
	ItemNumber string
	Columns    []string
}

// ColorRequest asks for verification of a list of layout files followed by
// coloring of the spreadsheet. An empty OutputPath overwrites the spreadsheet.
type ColorRequest struct {
	ExcelPath   string
	LayoutPaths []string
	OutputPath  string
	Columns     []string
}

// NewVerificationService creates a new verification service with dependencies
func NewVerificationService(
	catalogs domain.CatalogLoader,
	scanner domain.LayoutScanner,
	extractor domain.LayoutTextExtractor,
	colorizer domain.SpreadsheetColorizer,
	config VerificationServiceConfig,
) *VerificationService {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	extension := config.DefaultExtension
	if extension == "" {
		extension = ".ai"
	}

	return &VerificationService{
		catalogs:  catalogs,
		scanner:   scanner,
		extractor: extractor,
		colorizer: colorizer,
		verifier:  NewProductVerifier(VerifierConfig{EnableDebugLogging: config.EnableDebugLogging}),
		workers:   workers,
		extension: extension,
	}
}

// VerifyLayouts verifies every layout of a directory and accumulates a summary.
// Flow: load catalog -> scan layouts -> verify each on the worker pool -> sort results
func (s *VerificationService) VerifyLayouts(ctx context.Context, req BatchRequest) (*domain.VerificationSummary, error) {
	if req.ExcelPath == "" || (req.LayoutsDir == "" && len(req.LayoutPaths) == 0) {
		return nil, domain.ErrInvalidRequest
	}

	slog.Info("loading product data", "excel", req.ExcelPath)
	catalog, err := s.catalogs.Load(ctx, req.ExcelPath, req.Columns)
	if err != nil {
		return nil, err
	}
	slog.Info("product data loaded", "products", catalog.Len())

	summary := domain.NewVerificationSummary(catalog.Len())

	var layouts []domain.LayoutFile
	if len(req.LayoutPaths) > 0 {
		layouts = layoutsFromPaths(req.LayoutPaths)
	} else {
		ext := req.Extension
		if ext == "" {
			ext = s.extension
		}

		slog.Info("scanning layouts directory", "dir", req.LayoutsDir, "extension", ext)
		layouts, err = s.scanner.Scan(req.LayoutsDir, ext)
		if err != nil {
			return nil, err
		}
	}

	err = s.runPool(ctx, layouts, func(ctx context.Context, layout domain.LayoutFile) {
		product, ok := catalog.Product(layout.ItemNumber)
		if !ok {
			slog.Warn("no spreadsheet entry for layout", "item_number", layout.ItemNumber, "layout", layout.Name)
			summary.AddUnmatchedLayout(layout.Name)
			return
		}

		result, ok := s.verifyProduct(ctx, product, layout)
		if !ok {
			return
		}
		summary.AddResult(result)
	})
	if err != nil {
		return nil, err
	}

	summary.SortByLayout()

	slog.Info("layouts processed",
		"layouts", len(layouts),
		"complete", summary.ProductsComplete,
		"partial", summary.ProductsPartial,
		"unmatched", summary.LayoutsWithoutMatch,
	)

	return summary, nil
}

// VerifySingle verifies one layout file against its product
func (s *VerificationService) VerifySingle(ctx context.Context, req SingleRequest) (*domain.ProductVerificationResult, error) {
	if req.ExcelPath == "" || req.LayoutPath == "" {
		return nil, domain.ErrInvalidRequest
	}

	itemNumber := req.ItemNumber
	if itemNumber == "" {
		var ok bool
		itemNumber, ok = ItemNumberFromFilename(req.LayoutPath)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoItemNumber, req.LayoutPath)
		}
	}

	slog.Info("verifying item", "item_number", itemNumber)

	catalog, err := s.catalogs.Load(ctx, req.ExcelPath, req.Columns)
	if err != nil {
		return nil, err
	}

	product, ok := catalog.Product(itemNumber)
	if !ok {
		return nil, fmt.Errorf("%w: item %q", domain.ErrProductNotFound, itemNumber)
	}

	layoutText, err := s.extractor.ExtractText(ctx, req.LayoutPath)
	if err != nil {
		return nil, err
	}

	return s.verifier.Verify(itemNumber, filepath.Base(req.LayoutPath), product.VerificationFields(), layoutText), nil
}

// VerifyAndColor verifies a list of layout files and colors the spreadsheet
// cells green, red or yellow from the outcome
func (s *VerificationService) VerifyAndColor(ctx context.Context, req ColorRequest) (*domain.ColoringResult, error) {
	if req.ExcelPath == "" {
		return nil, domain.ErrInvalidRequest
	}
	if len(req.LayoutPaths) == 0 {
		return nil, domain.ErrNoLayouts
	}

	catalog, err := s.catalogs.Load(ctx, req.ExcelPath, req.Columns)
	if err != nil {
		return nil, err
	}
	slog.Info("processing layout files", "products", catalog.Len(), "layouts", len(req.LayoutPaths))

	layouts := layoutsFromPaths(req.LayoutPaths)

	presence := make(map[string]map[string]bool)
	var mu sync.Mutex

	err = s.runPool(ctx, layouts, func(ctx context.Context, layout domain.LayoutFile) {
		product, ok := catalog.Product(layout.ItemNumber)
		if !ok {
			slog.Warn("no spreadsheet entry for item", "item_number", layout.ItemNumber)
			return
		}

		result, ok := s.verifyProduct(ctx, product, layout)
		if !ok {
			return
		}

		mu.Lock()
		presence[layout.ItemNumber] = result.FieldPresence()
		mu.Unlock()

		slog.Info("item verified",
			"item_number", layout.ItemNumber,
			"matched", result.MatchedFields,
			"total", result.TotalFields,
		)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("products verified from layouts", "products", len(presence))

	return s.colorizer.Colorize(ctx, req.ExcelPath, presence, req.OutputPath, req.Columns)
}

// layoutsFromPaths pairs existing files with their item numbers, skipping the rest
func layoutsFromPaths(paths []string) []domain.LayoutFile {
	layouts := make([]domain.LayoutFile, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			slog.Warn("layout file not found", "layout", path)
			continue
		}
		itemNumber, ok := ItemNumberFromFilename(path)
		if !ok {
			slog.Warn("could not extract item number", "layout", filepath.Base(path))
			continue
		}
		layouts = append(layouts, domain.LayoutFile{Path: path, Name: filepath.Base(path), ItemNumber: itemNumber})
	}
	return layouts
}

// verifyProduct extracts layout text and verifies the product fields.
// It returns false when there is nothing to verify or the layout is unreadable.
func (s *VerificationService) verifyProduct(
	ctx context.Context,
	product domain.Product,
	layout domain.LayoutFile,
) (*domain.ProductVerificationResult, bool) {
	fields := product.VerificationFields()
	if len(fields) == 0 {
		slog.Warn("no fields to verify", "item_number", layout.ItemNumber)
		return nil, false
	}

	layoutText, err := s.extractor.ExtractText(ctx, layout.Path)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("failed to read layout", "layout", layout.Name, "error", err)
		}
		return nil, false
	}

	return s.verifier.Verify(layout.ItemNumber, layout.Name, fields, layoutText), true
}

// runPool feeds layouts to the worker goroutines and waits for them.
// With one worker layouts are processed in slice order.
func (s *VerificationService) runPool(
	ctx context.Context,
	layouts []domain.LayoutFile,
	process func(context.Context, domain.LayoutFile),
) error {
	jobs := make(chan domain.LayoutFile)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for layout := range jobs {
				process(ctx, layout)
			}
		}()
	}

dispatch:
	for _, layout := range layouts {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- layout:
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}
