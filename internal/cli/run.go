// Package cli implements the layoutverify command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/pflag"

	"github.com/layoutverifier/backend/config"
	"github.com/layoutverifier/backend/internal/domain"
	"github.com/layoutverifier/backend/internal/infrastructure/layout"
	"github.com/layoutverifier/backend/internal/infrastructure/report"
	"github.com/layoutverifier/backend/internal/infrastructure/spreadsheet"
	"github.com/layoutverifier/backend/internal/usecase"
	"github.com/layoutverifier/backend/pkg/logger"
)

// Exit codes
const (
	ExitOK      = 0
	ExitError   = 1
	ExitPartial = 2 // single layout verified with missing fields
)

// FormatExcel selects the colored workbook output instead of a report
const FormatExcel = "excel"

const rule = "========================================"

type options struct {
	excel      string
	layoutsDir string
	layout     string
	layouts    []string
	output     string
	format     string
	item       string
	columns    []string
}

// Run parses args, runs one verification mode and returns the exit code.
// Reports and results go to stdout, logs and errors to stderr.
func Run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("layoutverify", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Verify product information between spreadsheet master data and layout files (.ai or .pdf).")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: layoutverify --excel FILE (--layouts-dir DIR | --layout FILE | --layouts FILE...) [flags]")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVarP(&opts.excel, "excel", "e", "", "spreadsheet with product master data (required)")
	fs.StringVarP(&opts.layoutsDir, "layouts-dir", "d", "", "directory of layout files to verify")
	fs.StringVarP(&opts.layout, "layout", "l", "", "single layout file to verify")
	fs.StringArrayVarP(&opts.layouts, "layouts", "L", nil, "layout file to verify and color (repeatable)")
	fs.StringVarP(&opts.output, "output", "o", "", "report or colored workbook path, - prints the report")
	fs.StringVarP(&opts.format, "format", "f", "", "output format: markdown, csv, html, pdf or excel (default from config)")
	fs.StringVarP(&opts.item, "item", "i", "", "item number for --layout, overrides the filename")
	fs.StringSliceVarP(&opts.columns, "columns", "C", nil, "spreadsheet columns to verify (default from config)")
	fs.StringP("ext", "x", ".ai", "layout extension scanned in --layouts-dir mode")
	fs.IntP("workers", "w", 1, "layouts verified in parallel")
	fs.Bool("debug", false, "log every field comparison")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("sheet", "", "worksheet holding the products (default first sheet)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitError
	}

	if err := opts.validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitError
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	if opts.format == "" {
		opts.format = cfg.Report.Format
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, opts, stdout, stderr)

	switch {
	case len(opts.layouts) > 0 || opts.format == FormatExcel:
		return app.color(ctx)
	case opts.layoutsDir != "":
		return app.batch(ctx)
	default:
		return app.single(ctx)
	}
}

func (o *options) validate() error {
	if o.excel == "" {
		return errors.New("--excel is required")
	}

	sources := 0
	for _, set := range []bool{o.layoutsDir != "", o.layout != "", len(o.layouts) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of --layouts-dir, --layout or --layouts is required")
	}

	if o.format != "" && o.format != FormatExcel && !report.Supported(o.format) {
		return fmt.Errorf("unsupported format %q, use one of %v or %s", o.format, report.Formats(), FormatExcel)
	}
	if o.item != "" && o.layout == "" {
		return errors.New("--item only applies to --layout")
	}
	return nil
}

type app struct {
	cfg     *config.Config
	opts    options
	service *usecase.VerificationService
	scanner *layout.Scanner
	stdout  io.Writer
	stderr  io.Writer
}

func newApp(cfg *config.Config, opts options, stdout, stderr io.Writer) *app {
	sheetOpts := spreadsheet.Options{
		Sheet:          cfg.Spreadsheet.Sheet,
		ItemColumn:     cfg.Spreadsheet.ItemColumn,
		DefaultColumns: cfg.Spreadsheet.Columns,
	}
	scanner := layout.NewScanner(usecase.ItemNumberFromFilename)

	return &app{
		cfg:  cfg,
		opts: opts,
		service: usecase.NewVerificationService(
			spreadsheet.NewLoader(sheetOpts),
			scanner,
			layout.NewExtractor(layout.ExtractorConfig{}),
			spreadsheet.NewColorizer(sheetOpts),
			usecase.VerificationServiceConfig{
				Workers:            cfg.Verification.Workers,
				DefaultExtension:   cfg.Layout.Extension,
				EnableDebugLogging: cfg.Verification.DebugLogging,
			},
		),
		scanner: scanner,
		stdout:  stdout,
		stderr:  stderr,
	}
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "\nError: %v\n", err)
	return ExitError
}

// color verifies a list of layouts and colors the workbook cells
func (a *app) color(ctx context.Context) int {
	paths := a.opts.layouts
	switch {
	case a.opts.layoutsDir != "":
		files, err := a.scanner.Scan(a.opts.layoutsDir, a.cfg.Layout.Extension)
		if err != nil {
			return a.fail(err)
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	case a.opts.layout != "":
		paths = []string{a.opts.layout}
	}
	if len(paths) == 0 {
		return a.fail(domain.ErrNoLayouts)
	}

	out := a.stdout
	fmt.Fprintln(out, "Product Layout Verification Tool")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Excel file: %s\n", a.opts.excel)
	fmt.Fprintf(out, "Layout files: %d\n", len(paths))
	fmt.Fprintln(out, "Output format: colored Excel")

	result, err := a.service.VerifyAndColor(ctx, usecase.ColorRequest{
		ExcelPath:   a.opts.excel,
		LayoutPaths: paths,
		OutputPath:  a.opts.output,
		Columns:     a.opts.columns,
	})
	if err != nil {
		return a.fail(err)
	}

	saved := a.opts.output
	if saved == "" {
		saved = a.opts.excel
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "VERIFICATION COMPLETE")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Products found in layouts: %d\n", result.ProductsFound)
	fmt.Fprintf(out, "Products not in layouts: %d\n", result.ProductsNotFound)
	fmt.Fprintln(out, "Cells colored:")
	fmt.Fprintf(out, "  - Green (matched): %d\n", result.CellsGreen)
	fmt.Fprintf(out, "  - Red (not matched): %d\n", result.CellsRed)
	fmt.Fprintf(out, "  - Yellow (unchecked): %d\n", result.CellsYellow)
	fmt.Fprintf(out, "\nColored Excel saved to: %s\n", saved)
	return ExitOK
}

// batch verifies a layout directory and writes the report
func (a *app) batch(ctx context.Context) int {
	// The summary goes to stderr when the report itself is printed.
	out := a.stdout
	toStdout := a.opts.output == "-"
	if toStdout {
		out = a.stderr
	}

	fmt.Fprintln(out, "Product Layout Verification Tool")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Excel file: %s\n", a.opts.excel)
	fmt.Fprintf(out, "Layouts directory: %s\n", a.opts.layoutsDir)
	fmt.Fprintf(out, "File extension: %s\n", a.cfg.Layout.Extension)
	fmt.Fprintf(out, "Output format: %s\n", a.opts.format)

	summary, err := a.service.VerifyLayouts(ctx, usecase.BatchRequest{
		ExcelPath:  a.opts.excel,
		LayoutsDir: a.opts.layoutsDir,
		Extension:  a.cfg.Layout.Extension,
		Columns:    a.opts.columns,
	})
	if err != nil {
		return a.fail(err)
	}

	if toStdout {
		if err := report.Write(a.opts.format, a.stdout, summary); err != nil {
			return a.fail(err)
		}
	} else {
		path := a.reportPath()
		if err := report.Save(path, a.opts.format, summary); err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(out, "Report saved to: %s\n", path)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "VERIFICATION COMPLETE")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Products verified: %d\n", summary.ProductsVerified)
	fmt.Fprintf(out, "  - Complete (all fields): %d\n", summary.ProductsComplete)
	fmt.Fprintf(out, "  - Partial (missing fields): %d\n", summary.ProductsPartial)
	fmt.Fprintf(out, "Layouts without Excel match: %d\n", summary.LayoutsWithoutMatch)
	fmt.Fprintf(out, "Overall success rate: %.1f%%\n", summary.OverallSuccessRate())
	return ExitOK
}

// reportPath is the -o path, or verification_report next to the layouts dir
// unless a report output dir is configured
func (a *app) reportPath() string {
	if a.opts.output != "" {
		return a.opts.output
	}
	dir := a.cfg.Report.OutputDir
	if dir == "" {
		dir = filepath.Dir(filepath.Clean(a.opts.layoutsDir))
	}
	return filepath.Join(dir, "verification_report"+report.Extension(a.opts.format))
}

// single verifies one layout and prints every field outcome
func (a *app) single(ctx context.Context) int {
	out := a.stdout
	fmt.Fprintln(out, "Product Layout Verification Tool")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Excel file: %s\n", a.opts.excel)
	fmt.Fprintf(out, "Layout file: %s\n", a.opts.layout)
	if a.opts.item != "" {
		fmt.Fprintf(out, "Item#: %s\n", a.opts.item)
	}

	result, err := a.service.VerifySingle(ctx, usecase.SingleRequest{
		ExcelPath:  a.opts.excel,
		LayoutPath: a.opts.layout,
		ItemNumber: a.opts.item,
		Columns:    a.opts.columns,
	})
	if err != nil {
		fmt.Fprintln(a.stderr, "Verification failed.")
		return a.fail(err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "VERIFICATION RESULT")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Item#: %s\n", result.ItemNumber)
	fmt.Fprintf(out, "Layout: %s\n", result.LayoutFile)
	fmt.Fprintf(out, "Fields: %d/%d matched\n", result.MatchedFields, result.TotalFields)
	fmt.Fprintf(out, "Success rate: %.1f%%\n", result.SuccessRate())
	fmt.Fprintf(out, "Status: %s\n", completeLabel(result))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Field Results:")
	fmt.Fprintln(out, strings.Repeat("-", len(rule)))

	for _, fr := range result.FieldResults {
		status, info := "MISSING", ""
		if fr.Found {
			status, info = "OK", fmt.Sprintf(" (%s)", fr.MatchType)
		}
		fmt.Fprintf(out, "  [%s] %s: %s%s\n", status, fr.FieldName, shorten(fr.ExpectedValue, 50), info)
	}

	if !result.IsComplete() {
		return ExitPartial
	}
	return ExitOK
}

func completeLabel(r *domain.ProductVerificationResult) string {
	if r.IsComplete() {
		return domain.StatusComplete
	}
	return domain.StatusPartial
}

// shorten cuts s to n runes followed by an ellipsis
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
