package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/layoutverifier/backend/internal/domain"
)

// Fill colors for verification outcomes
const (
	FillMatched   = "90EE90"
	FillUnmatched = "FFB6B6"
	FillUnchecked = "FFFACD"
)

const maxDetailValueLen = 50

// Colorizer fills workbook cells from verification outcomes
type Colorizer struct {
	sheet      string
	itemColumn string
}

// NewColorizer creates a colorizer reading the same sheet and item column as the loader
func NewColorizer(opts Options) *Colorizer {
	opts = opts.withDefaults()
	return &Colorizer{sheet: opts.Sheet, itemColumn: opts.ItemColumn}
}

// Colorize fills the cells of every item in presence: matched fields green,
// unmatched fields red and non-empty unchecked columns yellow. The workbook is
// saved to outputPath, or overwritten when outputPath is empty. Empty columns
// default to the item column plus every field named in presence.
func (c *Colorizer) Colorize(
	ctx context.Context,
	path string,
	presence map[string]map[string]bool,
	outputPath string,
	columns []string,
) (*domain.ColoringResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSpreadsheetNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}

	slog.Info("loading workbook for coloring", "file", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, c.sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpreadsheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrItemColumnMissing, c.itemColumn)
	}

	if len(columns) == 0 {
		columns = c.presenceColumns(presence)
	}

	checked := checkedColumns(rows[0], columns)
	itemIdx, ok := checked[c.itemColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrItemColumnMissing, c.itemColumn)
	}

	// Header order keeps cell details stable between runs.
	order := make([]string, 0, len(checked))
	for name := range checked {
		if name != c.itemColumn {
			order = append(order, name)
		}
	}
	sort.Slice(order, func(i, j int) bool { return checked[order[i]] < checked[order[j]] })

	fills := newFillCache(f)

	outputName := outputPath
	if outputName == "" {
		outputName = path
	}
	result := &domain.ColoringResult{ExcelPath: path, OutputPath: outputName}

	items := make([]string, 0, len(presence))
	for item := range presence {
		items = append(items, item)
	}
	sort.Strings(items)

	for _, item := range items {
		fields := presence[item]

		rowNum, ok := findItemRow(rows, itemIdx, item)
		if !ok {
			slog.Warn("item not found in spreadsheet", "item_number", item)
			result.ProductsNotFound++
			continue
		}
		result.ProductsFound++

		for _, name := range order {
			cell, err := excelize.CoordinatesToCellName(checked[name]+1, rowNum)
			if err != nil {
				return nil, err
			}
			value := cellAt(rows[rowNum-1], checked[name])

			var color string
			matched, verified := fields[name]
			switch {
			case verified && matched:
				color = domain.ColorGreen
				result.CellsGreen++
			case verified:
				color = domain.ColorRed
				result.CellsRed++
			case strings.TrimSpace(value) != "":
				color = domain.ColorYellow
				result.CellsYellow++
			default:
				continue
			}

			if err := fills.apply(sheet, cell, color); err != nil {
				return nil, fmt.Errorf("coloring cell %s: %w", cell, err)
			}

			result.CellDetails = append(result.CellDetails, domain.CellColorResult{
				Row:       rowNum,
				Column:    name,
				Color:     color,
				FieldName: name,
				Value:     truncate(value, maxDetailValueLen),
			})
		}
	}

	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating output directory: %w", err)
			}
		}
		err = f.SaveAs(outputPath)
	} else {
		err = f.Save()
	}
	if err != nil {
		return nil, fmt.Errorf("saving workbook: %w", err)
	}

	slog.Info("workbook colored",
		"output", filepath.Base(outputName),
		"green", result.CellsGreen,
		"red", result.CellsRed,
		"yellow", result.CellsYellow,
	)

	return result, nil
}

func (c *Colorizer) presenceColumns(presence map[string]map[string]bool) []string {
	seen := map[string]bool{c.itemColumn: true}
	columns := []string{c.itemColumn}
	for _, fields := range presence {
		for name := range fields {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns[1:])
	return columns
}

// checkedColumns maps each requested column found on the header row to its
// zero-based index, keyed by the requested spelling
func checkedColumns(header []string, columns []string) map[string]int {
	index := headerIndex(header)
	checked := make(map[string]int, len(columns))
	for _, name := range columns {
		if idx, ok := index[normalizeHeader(name)]; ok {
			checked[name] = idx
		}
	}
	return checked
}

// findItemRow returns the one-based row number of the first data row whose
// item cell equals item
func findItemRow(rows [][]string, itemIdx int, item string) (int, bool) {
	target := strings.TrimSpace(item)
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(cellAt(rows[i], itemIdx)) == target {
			return i + 1, true
		}
	}
	return 0, false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// fillCache derives fill styles from the existing cell styles so number
// formats, fonts and borders survive coloring
type fillCache struct {
	f      *excelize.File
	styles map[fillKey]int
}

type fillKey struct {
	base  int
	color string
}

func newFillCache(f *excelize.File) *fillCache {
	return &fillCache{f: f, styles: make(map[fillKey]int)}
}

var fillColors = map[string]string{
	domain.ColorGreen:  FillMatched,
	domain.ColorRed:    FillUnmatched,
	domain.ColorYellow: FillUnchecked,
}

func (c *fillCache) apply(sheet, cell, color string) error {
	base, err := c.f.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}

	key := fillKey{base: base, color: color}
	id, ok := c.styles[key]
	if !ok {
		style := &excelize.Style{}
		if base != 0 {
			existing, err := c.f.GetStyle(base)
			if err != nil {
				return err
			}
			if existing != nil {
				style = existing
			}
		}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fillColors[color]}}

		id, err = c.f.NewStyle(style)
		if err != nil {
			return err
		}
		c.styles[key] = id
	}

	return c.f.SetCellStyle(sheet, cell, cell, id)
}
