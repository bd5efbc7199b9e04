package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// CommandRunner executes an external command and returns its stdout.
// Swappable in tests so the pdftotext fallback stays unit-testable.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// pdfRunner is the fallback command runner. Package-level so tests can
// stub the external pdftotext dependency.
var pdfRunner CommandRunner = execRunner{}

const pdfFallbackTimeout = 30 * time.Second

// extractPDF reads a PDF page by page, prefixing each page with a marker.
// The in-process reader runs first; if it yields nothing (scanned PDFs,
// exotic encodings) the text is re-derived through pdftotext when the
// binary is available.
func extractPDF(path string) string {
	text := extractPDFNative(path)
	if text != "" {
		return text
	}
	return extractPDFFallback(path)
}

func extractPDFNative(path string) (text string) {
	// The reader panics on some malformed xref tables; a broken file
	// must degrade to the fallback, not crash the worker.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content != "" {
			pages = append(pages, fmt.Sprintf("--- Page %d ---\n%s", i, content))
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

func extractPDFFallback(path string) string {
	ctx, cancel := context.WithTimeout(context.Background(), pdfFallbackTimeout)
	defer cancel()

	out, err := pdfRunner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return ""
	}

	// pdftotext separates pages with form feeds; rewrite them as the
	// same page markers the native path produces.
	var pages []string
	for i, raw := range strings.Split(string(out), "\f") {
		content := strings.TrimSpace(raw)
		if content != "" {
			pages = append(pages, fmt.Sprintf("--- Page %d ---\n%s", i+1, content))
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

// PDFPageCount returns the number of pages, or 0 when the file cannot be
// parsed. Used by the upload analyzer for the too-large heuristic.
func PDFPageCount(path string) (count int) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return reader.NumPage()
}
