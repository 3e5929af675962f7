package domain

import "errors"

var (
	// ErrSpreadsheetNotFound is returned when the product master data file does not exist
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

	// ErrInvalidSpreadsheet is returned when the spreadsheet cannot be read or holds no rows
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

	// ErrColumnsNotFound is returned when none of the requested columns exist
	ErrColumnsNotFound = errors.New("none of the expected columns found")

	// ErrItemColumnMissing is returned when the item number column is absent
	ErrItemColumnMissing = errors.New("item number column not found")

	// ErrProductNotFound is returned when no row matches an item number
	ErrProductNotFound = errors.New("product not found in spreadsheet")

	// ErrLayoutNotFound is returned when a layout file or directory does not exist
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrUnsupportedLayout is returned for layout files that are neither PDF nor AI
	ErrUnsupportedLayout = errors.New("unsupported layout file type")

	// ErrLayoutUnreadable is returned when text cannot be extracted from a layout
	ErrLayoutUnreadable = errors.New("layout could not be read")

	// ErrNoLayouts is returned when a run has no layout files to process
	ErrNoLayouts = errors.New("no layout files")

	// ErrNoItemNumber is returned when a layout filename carries no item number
	ErrNoItemNumber = errors.New("item number could not be extracted from filename")

	// ErrUnsupportedFormat is returned for unknown report formats
	ErrUnsupportedFormat = errors.New("unsupported report format")

	// ErrSessionNotFound is returned when a web session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStorageUnavailable is returned when report storage is not configured or fails
	ErrStorageUnavailable = errors.New("report storage unavailable")
)
