package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/layoutverifier/backend/internal/domain"
)

// FormatCSV is the spreadsheet-friendly report
const FormatCSV = "csv"

func init() {
	Register(FormatCSV, ".csv", "text/csv; charset=utf-8", writeCSV)
}

var csvHeader = []string{"Item#", "Layout File", "Total Fields", "Matched", "Missing", "Success Rate", "Status", "Missing Fields"}

func writeCSV(w io.Writer, s *domain.VerificationSummary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range s.Results {
		record := []string{
			r.ItemNumber,
			r.LayoutFile,
			strconv.Itoa(r.TotalFields),
			strconv.Itoa(r.MatchedFields),
			strconv.Itoa(r.MissingFields),
			fmt.Sprintf("%.1f%%", r.SuccessRate()),
			r.Status(),
			strings.Join(r.MissingFieldNames(), "; "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	for _, name := range s.UnmatchedLayouts {
		if err := cw.Write([]string{"N/A", name, "0", "0", "0", "0%", domain.StatusNoMatch, ""}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
