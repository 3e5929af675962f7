package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/layoutverifier/backend/internal/domain"
)

// FormatHTML is the Markdown report rendered to a standalone page
const FormatHTML = "html"

func init() {
	Register(FormatHTML, ".html", "text/html; charset=utf-8", writeHTML)
}

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Product Layout Verification Report</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 0.5em 0 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
`

const htmlTail = `</body>
</html>
`

func writeHTML(w io.Writer, s *domain.VerificationSummary) error {
	var md bytes.Buffer
	if err := writeMarkdown(&md, s); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := markdownRenderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}

	if _, err := io.WriteString(w, htmlHead); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, htmlTail)
	return err
}
