package parser

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/datasetgen/internal/document"
	"github.com/viant/afs"
)

// DefaultMinPageChars is the minimum trimmed rune count for a page to be
// sent to the model.
const DefaultMinPageChars = 50

// ErrDirNotFound is returned by Discover when the input directory is missing.
var ErrDirNotFound = errors.New("documents directory not found")

// PageParser converts raw document bytes into pages.
type PageParser interface {
	Parse(data []byte) (Pages, error)
}

// Pages is a parsed document. All may be called any number of times and
// always yields the same pages in order.
type Pages interface {
	Len() int
	All() iter.Seq[document.Page]
}

// pageList is a Pages backed by already-extracted text.
type pageList []document.Page

func (l pageList) Len() int { return len(l) }

func (l pageList) All() iter.Seq[document.Page] {
	return func(yield func(document.Page) bool) {
		for _, p := range l {
			if !yield(p) {
				return
			}
		}
	}
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, fallbackPdftotext bool) (PageParser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{FallbackPdftotext: fallbackPdftotext}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Discover lists the files directly inside dir whose base name matches any
// of the glob patterns. Results are sorted by name.
func Discover(ctx context.Context, fs afs.Service, dir string, patterns []string) ([]document.Document, error) {
	loc, err := location(dir)
	if err != nil {
		return nil, err
	}
	ok, err := fs.Exists(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	objects, err := fs.List(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var docs []document.Document
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		if !matchAny(patterns, obj.Name()) {
			continue
		}
		docs = append(docs, document.Document{
			URL:  obj.URL(),
			Name: obj.Name(),
			Size: obj.Size(),
		})
	}
	slices.SortFunc(docs, func(a, b document.Document) int {
		return strings.Compare(a.Name, b.Name)
	})
	return docs, nil
}

func location(dir string) (string, error) {
	if strings.Contains(dir, "://") {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Extractor opens documents and yields their pages with enough text to be
// worth a model call.
type Extractor struct {
	fs                afs.Service
	minChars          int
	fallbackPdftotext bool
}

func NewExtractor(fs afs.Service, minChars int, fallbackPdftotext bool) *Extractor {
	if minChars <= 0 {
		minChars = DefaultMinPageChars
	}
	return &Extractor{
		fs:                fs,
		minChars:          minChars,
		fallbackPdftotext: fallbackPdftotext,
	}
}

// Open reads and parses a document. A returned error means the whole
// document is unusable.
func (e *Extractor) Open(ctx context.Context, doc document.Document) (*Source, error) {
	p, err := ForFile(doc.Name, e.fallbackPdftotext)
	if err != nil {
		return nil, err
	}
	data, err := e.fs.DownloadWithURL(ctx, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Name, err)
	}
	pages, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.Name, err)
	}
	return &Source{
		doc:      doc,
		pages:    pages,
		hash:     ContentHashHex(data),
		minChars: e.minChars,
	}, nil
}

// Source is an opened document.
type Source struct {
	doc      document.Document
	pages    Pages
	hash     string
	minChars int
}

// Document returns the document this source was opened from.
func (s *Source) Document() document.Document { return s.doc }

// Total is the raw page count, including pages Pages will skip.
func (s *Source) Total() int { return s.pages.Len() }

// Hash is the hex SHA-256 of the document bytes.
func (s *Source) Hash() string { return s.hash }

// Pages yields the pages whose trimmed text has at least the minimum number
// of characters. Each call restarts from the first page.
func (s *Source) Pages() iter.Seq[document.Page] {
	return func(yield func(document.Page) bool) {
		for p := range s.pages.All() {
			if !HasEnoughText(p.Text, s.minChars) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// HasEnoughText reports whether text has at least minChars runes once
// surrounding whitespace is removed.
func HasEnoughText(text string, minChars int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= minChars
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
