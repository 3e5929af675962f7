package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/layoutverifier/backend/internal/domain"
)

// DefaultItemColumn is the header of the column holding item numbers
const DefaultItemColumn = "Item#"

// Options configures how product master data is read from a workbook
type Options struct {
	// Sheet selects the worksheet; empty selects the first sheet.
	Sheet string
	// ItemColumn names the column products are keyed by.
	ItemColumn string
	// Columns lists the headers to read. Empty uses DefaultColumns.
	Columns []string
	// DefaultColumns applies when Columns is empty.
	DefaultColumns []string
}

// Catalog is product master data loaded from one worksheet
type Catalog struct {
	columns    []string
	itemColumn string
	products   []domain.Product
	index      map[string]int
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// Columns returns the loaded column names in header order
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Product looks up a product by item number
func (c *Catalog) Product(itemNumber string) (domain.Product, bool) {
	i, ok := c.index[strings.TrimSpace(itemNumber)]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Products returns all products in sheet order
func (c *Catalog) Products() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// IsWorkbook reports whether path has a spreadsheet extension this package reads
func IsWorkbook(path string) bool {
	return workbookExtensions[strings.ToLower(filepath.Ext(path))]
}

// Open reads product master data from the workbook at path.
// Header names are matched case-insensitively and renamed to the requested spelling.
func Open(path string, opts Options) (*Catalog, error) {
	opts = opts.withDefaults()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSpreadsheetNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}
	if !IsWorkbook(path) {
		return nil, fmt.Errorf("%w: not a workbook: %s", domain.ErrInvalidSpreadsheet, filepath.Base(path))
	}

	slog.Info("loading product data", "file", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %q contains no data", domain.ErrInvalidSpreadsheet, sheet)
	}

	header := headerIndex(rows[0])

	type column struct {
		name string
		idx  int
	}
	var available []column
	var missing []string
	for _, name := range opts.Columns {
		idx, ok := header[normalizeHeader(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		available = append(available, column{name: name, idx: idx})
	}

	if len(available) == 0 {
		return nil, fmt.Errorf("%w: expected %v, found %v", domain.ErrColumnsNotFound, opts.Columns, rows[0])
	}
	if len(missing) > 0 {
		slog.Warn("some columns not found in spreadsheet", "missing", missing)
	}

	itemIdx, ok := header[normalizeHeader(opts.ItemColumn)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrItemColumnMissing, opts.ItemColumn)
	}

	catalog := &Catalog{
		itemColumn: opts.ItemColumn,
		index:      make(map[string]int),
	}
	for _, col := range available {
		catalog.columns = append(catalog.columns, col.name)
	}

	for r, row := range rows[1:] {
		itemNumber := strings.TrimSpace(cellAt(row, itemIdx))
		if domain.IsBlankCell(itemNumber) {
			continue
		}

		if _, dup := catalog.index[itemNumber]; dup {
			slog.Warn("multiple products with the same item number, using first", "item_number", itemNumber)
			continue
		}

		values := make(map[string]string, len(available))
		for _, col := range available {
			values[col.name] = cellAt(row, col.idx)
		}
		values[opts.ItemColumn] = itemNumber

		catalog.index[itemNumber] = len(catalog.products)
		catalog.products = append(catalog.products, domain.Product{
			ItemNumber: itemNumber,
			Row:        r + 2,
			Columns:    catalog.columns,
			Values:     values,
			ItemColumn: opts.ItemColumn,
		})
	}

	slog.Info("product data loaded", "products", len(catalog.products), "columns", len(catalog.columns))

	return catalog, nil
}

// Loader opens catalogs with fixed sheet and item column settings
type Loader struct {
	opts Options
}

// NewLoader creates a catalog loader
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts.withDefaults()}
}

// Load opens the workbook at path reading the given columns, or the loader's
// default columns when columns is empty
func (l *Loader) Load(ctx context.Context, path string, columns []string) (domain.ProductCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := l.opts
	if len(columns) > 0 {
		opts.Columns = columns
	}
	return Open(path, opts)
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ItemColumn) == "" {
		o.ItemColumn = DefaultItemColumn
	}
	if len(o.Columns) == 0 {
		o.Columns = o.DefaultColumns
	}
	if len(o.Columns) == 0 {
		o.Columns = []string{o.ItemColumn}
	}
	return o
}

// resolveSheet returns the named sheet or the first sheet of the workbook
func resolveSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidSpreadsheet)
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: sheet %q not found", domain.ErrInvalidSpreadsheet, name)
}

// headerIndex maps normalized header names to zero-based column indexes.
// The first occurrence of a header wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return index
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// cellAt returns the cell of a ragged excelize row, or "" past its end
func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
