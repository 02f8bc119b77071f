package parser

import (
	"bytes"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/datasetgen/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(data []byte) (Pages, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		return &pdfPages{reader: reader}, nil
	}
	if !p.FallbackPdftotext {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	text, ferr := extractPdftotext(data)
	if ferr != nil {
		return nil, fmt.Errorf("open pdf: %w (fallback: %v)", err, ferr)
	}
	return splitPages(text), nil
}

// pdfPages extracts page text on demand.
type pdfPages struct {
	reader *pdflib.Reader
}

func (p *pdfPages) Len() int { return p.reader.NumPage() }

func (p *pdfPages) All() iter.Seq[document.Page] {
	return func(yield func(document.Page) bool) {
		n := p.reader.NumPage()
		for i := 1; i <= n; i++ {
			text, ok := p.pageText(i)
			if !ok {
				continue
			}
			if !yield(document.Page{Number: i, Text: text}) {
				return
			}
		}
	}
}

// pageText returns false for pages that have no content stream or whose
// content the library cannot decode.
func (p *pdfPages) pageText(i int) (text string, ok bool) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	page := p.reader.Page(i)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}

func extractPdftotext(data []byte) (string, error) {
	// pdftotext needs a path, so write to a temp file.
	tmp, err := os.CreateTemp("", "datasetgen-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// splitPages breaks form-feed separated text into numbered pages.
func splitPages(text string) pageList {
	parts := strings.Split(text, "\f")
	// pdftotext terminates the last page with a form feed too.
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make(pageList, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, document.Page{Number: i + 1, Text: part})
	}
	return pages
}
