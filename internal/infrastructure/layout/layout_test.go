package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layoutverifier/backend/internal/domain"
)

// stemBeforeSpace mirrors the filename convention "<item> <name>.<ext>"
func stemBeforeSpace(name string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	item, _, _ := strings.Cut(stem, " ")
	return item, item != ""
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func TestScanner_Scan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "300 - PAN.ai")
	touch(t, dir, "100 Lid.AI")
	touch(t, dir, "200 Pot.pdf")
	touch(t, dir, " leading.ai")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "400 folder.ai"), 0o755))

	layouts, err := NewScanner(stemBeforeSpace).Scan(dir, ".ai")
	require.NoError(t, err)

	require.Len(t, layouts, 2)
	assert.Equal(t, domain.LayoutFile{Path: filepath.Join(dir, "100 Lid.AI"), Name: "100 Lid.AI", ItemNumber: "100"}, layouts[0])
	assert.Equal(t, "300", layouts[1].ItemNumber)
}

func TestScanner_Scan_Empty(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "100 Lid.pdf")

	layouts, err := NewScanner(stemBeforeSpace).Scan(dir, ".ai")
	require.NoError(t, err)
	assert.Empty(t, layouts)
}

func TestScanner_Scan_MissingDir(t *testing.T) {
	_, err := NewScanner(stemBeforeSpace).Scan(filepath.Join(t.TempDir(), "nope"), ".ai")
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)

	file := filepath.Join(t.TempDir(), "file.ai")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewScanner(stemBeforeSpace).Scan(file, ".ai")
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("a.AI", ".ai"))
	assert.True(t, HasExtension("a.pdf", ".PDF"))
	assert.False(t, HasExtension("a.ai.bak", ".ai"))
}

// writePDF writes a one-page PDF showing each line with Tj
func writePDF(t *testing.T, path string, lines ...string) {
	t.Helper()

	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td ")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -14 Td ")
		}
		fmt.Fprintf(&content, "(%s) Tj ", line)
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

type stubDecoder struct {
	codes []string
	err   error
}

func (s stubDecoder) Decode(ctx context.Context, path string) ([]string, error) {
	return s.codes, s.err
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestNewExtractor_BarcodeNotice(t *testing.T) {
	t.Run("warns without a decoder", func(t *testing.T) {
		logs := captureLogs(t)
		NewExtractor(ExtractorConfig{})
		assert.Contains(t, logs.String(), "level=WARN")
		assert.Contains(t, logs.String(), "barcode decoding not available")
	})

	t.Run("silent with a decoder", func(t *testing.T) {
		logs := captureLogs(t)
		NewExtractor(ExtractorConfig{Barcodes: stubDecoder{}})
		assert.Empty(t, logs.String())
	})
}

func TestExtractor_ExtractText(t *testing.T) {
	dir := t.TempDir()

	t.Run("pdf text", func(t *testing.T) {
		path := filepath.Join(dir, "199034 PAN.pdf")
		writePDF(t, path, "FRYING PAN 24CM", "Made in PRC")

		text, err := NewExtractor(ExtractorConfig{}).ExtractText(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, text, "FRYING PAN 24CM")
		assert.Contains(t, text, "Made in PRC")
	})

	t.Run("illustrator file with pdf body", func(t *testing.T) {
		path := filepath.Join(dir, "199034 PAN.ai")
		writePDF(t, path, "Batch LOT-01")

		text, err := NewExtractor(ExtractorConfig{}).ExtractText(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, text, "Batch LOT-01")
	})

	t.Run("illustrator file falls back to raw strings", func(t *testing.T) {
		path := filepath.Join(dir, "raw.ai")
		raw := "%!PS-Adobe-3.0\n%%Creator: Adobe Illustrator\n(Frying pan) show\nBT (EAN 5901234123457) Tj ET\n"
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

		text, err := NewExtractor(ExtractorConfig{}).ExtractText(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, text, "Frying pan")
		assert.Contains(t, text, "EAN 5901234123457")
	})

	t.Run("barcodes appended", func(t *testing.T) {
		path := filepath.Join(dir, "barcode.pdf")
		writePDF(t, path, "Label")

		ex := NewExtractor(ExtractorConfig{Barcodes: stubDecoder{codes: []string{"5901234123457", ""}}})
		text, err := ex.ExtractText(context.Background(), path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(text, " 5901234123457"), "got %q", text)
	})

	t.Run("barcode failure keeps text", func(t *testing.T) {
		path := filepath.Join(dir, "barcode-err.pdf")
		writePDF(t, path, "Label")

		ex := NewExtractor(ExtractorConfig{Barcodes: stubDecoder{err: errors.New("render failed")}})
		text, err := ex.ExtractText(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, text, "Label")
	})
}

func TestExtractor_ExtractText_Errors(t *testing.T) {
	dir := t.TempDir()
	ex := NewExtractor(ExtractorConfig{})

	_, err := ex.ExtractText(context.Background(), filepath.Join(dir, "layout.svg"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedLayout)

	_, err = ex.ExtractText(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)

	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0o644))
	_, err = ex.ExtractText(context.Background(), broken)
	assert.ErrorIs(t, err, domain.ErrLayoutUnreadable)

	binary := filepath.Join(dir, "binary.ai")
	require.NoError(t, os.WriteFile(binary, []byte{0x00, 0x01, 0x02}, 0o644))
	_, err = ex.ExtractText(context.Background(), binary)
	assert.ErrorIs(t, err, domain.ErrLayoutUnreadable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.ExtractText(ctx, broken)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostscriptText(t *testing.T) {
	raw := []byte(`(Hello \(world\)) (a) (Tj) BT (Batch no: 42) Tj ET`)

	text := postscriptText(raw)
	assert.Contains(t, text, "Hello (world)")
	assert.Contains(t, text, "Batch no: 42")
	assert.NotContains(t, text, " a ")
}

func TestIsReadable(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"ok text", true},
		{"x", false},
		{"Tf", false},
		{"\x00\x01\x02ab", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, isReadable(tt.text))
		})
	}
}
