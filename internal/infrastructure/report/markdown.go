package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/layoutverifier/backend/internal/domain"
)

// FormatMarkdown is the human-readable report
const FormatMarkdown = "markdown"

func init() {
	Register(FormatMarkdown, ".md", "text/markdown; charset=utf-8", writeMarkdown)
}

// Line breaks inside spreadsheet cells would end a table row.
var cellFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

var pipeEscaper = strings.NewReplacer("|", `\|`)

// flattenCell puts a cell value on one line
func flattenCell(s string) string {
	return cellFlattener.Replace(s)
}

// tableCell makes a value safe inside a markdown table row
func tableCell(s string) string {
	return pipeEscaper.Replace(flattenCell(s))
}

func writeMarkdown(w io.Writer, s *domain.VerificationSummary) error {
	b := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}

	line("# Product Layout Verification Report")
	line("")
	line("**Generated:** %s", now().Format("2006-01-02 15:04:05"))
	line("")

	line("## Summary")
	line("")
	line("- **Total products in Excel:** %d", s.TotalProducts)
	line("- **Layouts verified:** %d", s.ProductsVerified)
	line("- **Fully verified (all fields found):** %d", s.ProductsComplete)
	line("- **Partially verified (some fields missing):** %d", s.ProductsPartial)
	line("- **Layouts without Excel match:** %d", s.LayoutsWithoutMatch)
	line("- **Overall success rate:** %.1f%%", s.OverallSuccessRate())
	line("")

	if len(s.UnmatchedLayouts) > 0 {
		line("## Layouts Without Excel Match")
		line("")
		line("The following layout files could not be matched to any product in Excel:")
		line("")
		for _, name := range s.UnmatchedLayouts {
			line("- %s", name)
		}
		line("")
	}

	if partial := s.PartialResults(); len(partial) > 0 {
		line("## Products With Missing Fields")
		line("")

		for _, r := range partial {
			line("### Item# %s", r.ItemNumber)
			line("**File:** %s", r.LayoutFile)
			line("**Match rate:** %.1f%% (%d/%d)", r.SuccessRate(), r.MatchedFields, r.TotalFields)
			line("")

			var missing, found []domain.FieldResult
			for _, fr := range r.FieldResults {
				if fr.Found {
					found = append(found, fr)
				} else {
					missing = append(missing, fr)
				}
			}

			if len(missing) > 0 {
				line("**Missing fields:**")
				line("")
				line("| Field | Expected Value |")
				line("|-------|----------------|")
				for _, fr := range missing {
					line("| %s | %s |", tableCell(fr.FieldName), tableCell(fr.ExpectedValue))
				}
				line("")
			}

			if len(found) > 0 {
				line("**Found fields:**")
				line("")
				line("| Field | Value | Match Type |")
				line("|-------|-------|------------|")
				for _, fr := range found {
					line("| %s | %s | %s |", tableCell(fr.FieldName), tableCell(fr.ExpectedValue), fr.MatchType)
				}
				line("")
			}
		}
	}

	if complete := s.CompleteResults(); len(complete) > 0 {
		line("## Fully Verified Products")
		line("")
		line("The following products have all fields verified:")
		line("")
		line("| Item# | Layout File | Fields |")
		line("|-------|-------------|--------|")
		for _, r := range complete {
			line("| %s | %s | %d |", tableCell(r.ItemNumber), tableCell(r.LayoutFile), r.TotalFields)
		}
		line("")
	}

	return b.Flush()
}
