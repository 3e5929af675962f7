package domain

import "time"

// Session processing states
const (
	SessionIdle       = "idle"
	SessionProcessing = "processing"
	SessionComplete   = "complete"
	SessionError      = "error"
)

// Session tracks the inputs and result of one web UI verification run
type Session struct {
	ID           string    `json:"sessionId"`
	TempDir      string    `json:"-"`
	ExcelPath    string    `json:"excelPath,omitempty"`
	ExcelName    string    `json:"excelFile,omitempty"`
	LayoutPaths  []string  `json:"layoutPaths,omitempty"`
	LayoutNames  []string  `json:"layoutFiles"`
	Status       string    `json:"status"`
	ResultPath   string    `json:"-"`
	DownloadURL  string    `json:"downloadUrl,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasResult reports whether a colored workbook was produced
func (s *Session) HasResult() bool {
	return s.Status == SessionComplete && s.ResultPath != ""
}
