package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/layoutverifier/backend/internal/domain"
	"github.com/layoutverifier/backend/internal/infrastructure/layout"
	"github.com/layoutverifier/backend/internal/infrastructure/report"
	"github.com/layoutverifier/backend/internal/infrastructure/spreadsheet"
	"github.com/layoutverifier/backend/internal/usecase"
	"github.com/layoutverifier/backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Verifier is the verification usecase the handlers drive
type Verifier interface {
	VerifyLayouts(ctx context.Context, req usecase.BatchRequest) (*domain.VerificationSummary, error)
	VerifyAndColor(ctx context.Context, req usecase.ColorRequest) (*domain.ColoringResult, error)
}

// HandlerConfig holds configuration for the HTTP handlers
type HandlerConfig struct {
	SessionTTL      time.Duration
	TempDir         string // parent of session temp dirs, empty selects os.TempDir
	ReportFormat    string
	Columns         []string
	LayoutExtension string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	verifier Verifier
	sessions domain.SessionRepository
	reports  domain.ReportStore // nil when object storage is disabled
	config   HandlerConfig
}

// NewHandler creates a new HTTP handler. reports may be nil.
func NewHandler(verifier Verifier, sessions domain.SessionRepository, reports domain.ReportStore, config HandlerConfig) *Handler {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 2 * time.Hour
	}
	if config.ReportFormat == "" {
		config.ReportFormat = report.FormatMarkdown
	}
	if config.LayoutExtension == "" {
		config.LayoutExtension = layout.ExtAI
	}
	return &Handler{
		verifier: verifier,
		sessions: sessions,
		reports:  reports,
		config:   config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "layoutverifier-backend",
		"version": "1.0.0",
	})
}

// SetExcelRequest selects the product spreadsheet by local path
type SetExcelRequest struct {
	Path string `json:"path" binding:"required"`
}

// SetLayoutsRequest selects layout files by path, by folder, or both
type SetLayoutsRequest struct {
	Paths  []string `json:"paths"`
	Folder string   `json:"folder"`
}

type layoutEntry struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type invalidEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CreateSession starts a new verification session with its own temp dir
func (h *Handler) CreateSession(c *gin.Context) {
	id := uuid.New().String()

	tempDir, err := os.MkdirTemp(h.config.TempDir, "layoutverify_"+id[:8]+"_")
	if err != nil {
		h.respondError(c, fmt.Errorf("creating session directory: %w", err))
		return
	}

	session := &domain.Session{
		ID:          id,
		TempDir:     tempDir,
		Status:      domain.SessionIdle,
		LayoutNames: []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.sessions.Set(c.Request.Context(), session, h.config.SessionTTL); err != nil {
		os.RemoveAll(tempDir)
		h.respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "session created", "session_id", id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

// GetSession returns the state of a session
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":   session.ID,
		"status":      session.Status,
		"excelFile":   session.ExcelName,
		"layoutFiles": session.LayoutNames,
		"layoutCount": len(session.LayoutNames),
		"error":       session.ErrorMessage,
		"hasResult":   session.HasResult() && fileExists(session.ResultPath),
		"downloadUrl": session.DownloadURL,
	})
}

// SetExcel selects the spreadsheet of a session. No upload is needed, the
// server runs on the machine holding the files.
func (h *Handler) SetExcel(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	var req SetExcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if !fileExists(req.Path) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File not found: %s", req.Path)})
		return
	}
	if !spreadsheet.IsWorkbook(req.Path) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid file type: %s. Expected .xlsx or .xlsm", filepath.Ext(req.Path)),
		})
		return
	}

	session.ExcelPath = req.Path
	session.ExcelName = filepath.Base(req.Path)
	resetResult(session)

	if !h.saveSession(c, session) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID,
		"filename":  session.ExcelName,
		"path":      session.ExcelPath,
	})
}

// SetLayouts replaces the layout files of a session. Entries that do not
// exist or are not layout files are reported back, not stored.
func (h *Handler) SetLayouts(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	var req SetLayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	candidates := append([]string(nil), req.Paths...)
	if req.Folder != "" {
		found, err := h.folderLayouts(req.Folder)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Folder not found or not a directory: %s", req.Folder),
			})
			return
		}
		candidates = append(candidates, found...)
	}

	valid := []layoutEntry{}
	var invalid []invalidEntry
	for _, p := range candidates {
		if !fileExists(p) {
			invalid = append(invalid, invalidEntry{Path: p, Reason: "not found"})
			continue
		}
		if !layout.HasExtension(p, h.config.LayoutExtension) {
			invalid = append(invalid, invalidEntry{Path: p, Reason: "invalid type: " + filepath.Ext(p)})
			continue
		}
		valid = append(valid, layoutEntry{Filename: filepath.Base(p), Path: p})
	}

	if len(valid) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   fmt.Sprintf("No valid %s layout files found", h.config.LayoutExtension),
			"invalid": invalid,
		})
		return
	}

	session.LayoutPaths = make([]string, 0, len(valid))
	session.LayoutNames = make([]string, 0, len(valid))
	for _, v := range valid {
		session.LayoutPaths = append(session.LayoutPaths, v.Path)
		session.LayoutNames = append(session.LayoutNames, v.Filename)
	}
	resetResult(session)

	if !h.saveSession(c, session) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID,
		"files":     valid,
		"count":     len(valid),
		"invalid":   invalid,
	})
}

// Process verifies the session layouts and colors a copy of the spreadsheet
// in the session temp dir
func (h *Handler) Process(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if !h.requireInputs(c, session) {
		return
	}

	ctx := c.Request.Context()

	session.Status = domain.SessionProcessing
	session.ErrorMessage = ""
	if !h.saveSession(c, session) {
		return
	}

	outputPath := filepath.Join(session.TempDir, "verified_"+session.ExcelName)
	result, err := h.verifier.VerifyAndColor(ctx, usecase.ColorRequest{
		ExcelPath:   session.ExcelPath,
		LayoutPaths: session.LayoutPaths,
		OutputPath:  outputPath,
		Columns:     h.config.Columns,
	})
	if err != nil {
		logger.Error(ctx, "processing failed", "error", err)
		session.Status = domain.SessionError
		session.ErrorMessage = err.Error()
		_ = h.sessions.Set(ctx, session, h.config.SessionTTL)
		h.respondError(c, err)
		return
	}

	session.Status = domain.SessionComplete
	session.ResultPath = outputPath
	session.DownloadURL = h.publish(ctx, session, outputPath, xlsxContentType)

	if !h.saveSession(c, session) {
		return
	}

	response := gin.H{
		"status":           session.Status,
		"productsFound":    result.ProductsFound,
		"productsNotFound": result.ProductsNotFound,
		"cellsGreen":       result.CellsGreen,
		"cellsRed":         result.CellsRed,
		"cellsYellow":      result.CellsYellow,
	}
	if session.DownloadURL != "" {
		response["downloadUrl"] = session.DownloadURL
	}
	c.JSON(http.StatusOK, response)
}

// Report runs batch verification over the session layouts and returns the
// rendered report
func (h *Handler) Report(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", h.config.ReportFormat)
	if !report.Supported(format) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported report format %q, use one of %v", format, report.Formats()),
		})
		return
	}

	if !h.requireInputs(c, session) {
		return
	}

	ctx := c.Request.Context()
	summary, err := h.verifier.VerifyLayouts(ctx, usecase.BatchRequest{
		ExcelPath:   session.ExcelPath,
		LayoutPaths: session.LayoutPaths,
		Columns:     h.config.Columns,
	})
	if err != nil {
		logger.Error(ctx, "report verification failed", "error", err)
		h.respondError(c, err)
		return
	}

	content, err := report.Render(format, summary)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := "verification_report" + report.Extension(format)
	if h.reports != nil {
		reportPath := filepath.Join(session.TempDir, filename)
		if err := os.WriteFile(reportPath, content, 0o644); err != nil {
			logger.Warn(ctx, "failed to write report file", "error", err)
		} else if url := h.publish(ctx, session, reportPath, report.ContentType(format)); url != "" {
			c.Header("X-Report-URL", url)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, report.ContentType(format), content)
}

// Download returns the colored spreadsheet of a completed session
func (h *Handler) Download(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	if session.Status != domain.SessionComplete {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Processing not complete"})
		return
	}
	if !session.HasResult() || !fileExists(session.ResultPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result file not found"})
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.FileAttachment(session.ResultPath, filepath.Base(session.ResultPath))
}

// DeleteSession removes a session and its temp dir
func (h *Handler) DeleteSession(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), session.ID); err != nil {
		h.respondError(c, err)
		return
	}
	if session.TempDir != "" {
		if err := os.RemoveAll(session.TempDir); err != nil {
			logger.Warn(c.Request.Context(), "failed to remove session directory", "error", err)
		}
	}

	logger.Info(c.Request.Context(), "session deleted")
	c.Status(http.StatusNoContent)
}

// loadSession fetches the session named by the :id parameter and tags the
// request context with it. It writes the error response and returns false
// when the session does not exist.
func (h *Handler) loadSession(c *gin.Context) (*domain.Session, bool) {
	id := c.Param("id")

	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}

	ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, session.ID)
	c.Request = c.Request.WithContext(ctx)

	return session, true
}

func (h *Handler) saveSession(c *gin.Context, session *domain.Session) bool {
	if err := h.sessions.Set(c.Request.Context(), session, h.config.SessionTTL); err != nil {
		h.respondError(c, err)
		return false
	}
	return true
}

func (h *Handler) requireInputs(c *gin.Context, session *domain.Session) bool {
	if session.ExcelPath == "" || !fileExists(session.ExcelPath) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No Excel file selected"})
		return false
	}
	if len(session.LayoutPaths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No layout files selected"})
		return false
	}
	return true
}

// folderLayouts lists the layout files of folder, sorted by name
func (h *Handler) folderLayouts(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && layout.HasExtension(e.Name(), h.config.LayoutExtension) {
			paths = append(paths, filepath.Join(folder, e.Name()))
		}
	}
	return paths, nil
}

// publish uploads a session file to object storage and returns its download
// link, or "" when storage is disabled or fails
func (h *Handler) publish(ctx context.Context, session *domain.Session, localPath, contentType string) string {
	if h.reports == nil {
		return ""
	}

	objectName := path.Join("sessions", session.ID, filepath.Base(localPath))
	if err := h.reports.Upload(ctx, objectName, localPath, contentType); err != nil {
		logger.Warn(ctx, "failed to publish file", "object", objectName, "error", err)
		return ""
	}

	url, err := h.reports.PresignedURL(ctx, objectName)
	if err != nil {
		logger.Warn(ctx, "failed to sign download url", "object", objectName, "error", err)
		return ""
	}
	return url
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":      err.Error(),
		"request_id": GetRequestID(c),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrNoLayouts),
		errors.Is(err, domain.ErrNoItemNumber),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrUnsupportedLayout),
		errors.Is(err, domain.ErrSpreadsheetNotFound),
		errors.Is(err, domain.ErrInvalidSpreadsheet),
		errors.Is(err, domain.ErrColumnsNotFound),
		errors.Is(err, domain.ErrItemColumnMissing),
		errors.Is(err, domain.ErrLayoutNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// resetResult clears a previous run after its inputs changed
func resetResult(session *domain.Session) {
	session.Status = domain.SessionIdle
	session.ResultPath = ""
	session.DownloadURL = ""
	session.ErrorMessage = ""
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
