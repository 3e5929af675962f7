package domain

import "strings"

// Product is one row of product master data, keyed by item number.
// Columns keep the header order of the spreadsheet.
type Product struct {
	ItemNumber string            `json:"itemNumber"`
	Row        int               `json:"row"`
	Columns    []string          `json:"columns"`
	Values     map[string]string `json:"values"`
	ItemColumn string            `json:"itemColumn"`
}

// VerificationFields returns the non-blank attributes to check on the layout.
// The item column is used for matching and is never verified.
func (p Product) VerificationFields() ExpectedFields {
	fields := make(ExpectedFields, 0, len(p.Columns))
	for _, col := range p.Columns {
		if col == p.ItemColumn {
			continue
		}
		value := strings.TrimSpace(p.Values[col])
		if IsBlankCell(value) {
			continue
		}
		fields = append(fields, ExpectedField{FieldName: col, ExpectedValue: value})
	}
	return fields
}

// IsBlankCell reports whether a cell value carries no data
func IsBlankCell(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "nan")
}

// LayoutFile is a packaging artwork file paired with the item number parsed from its name
type LayoutFile struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	ItemNumber string `json:"itemNumber"`
}

// Cell colors applied by the spreadsheet colorizer
const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorYellow = "yellow"
)

// CellColorResult tracks one colored spreadsheet cell
type CellColorResult struct {
	Row       int    `json:"row"`
	Column    string `json:"column"`
	Color     string `json:"color"`
	FieldName string `json:"fieldName"`
	Value     string `json:"value"`
}

// ColoringResult summarizes a spreadsheet coloring run
type ColoringResult struct {
	ExcelPath        string            `json:"excelPath"`
	OutputPath       string            `json:"outputPath"`
	ProductsFound    int               `json:"productsFound"`
	ProductsNotFound int               `json:"productsNotFound"`
	CellsGreen       int               `json:"cellsGreen"`
	CellsRed         int               `json:"cellsRed"`
	CellsYellow      int               `json:"cellsYellow"`
	CellDetails      []CellColorResult `json:"cellDetails,omitempty"`
}
