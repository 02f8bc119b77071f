package parser

import (
	"strings"

	"github.com/dgallion1/datasetgen/internal/document"
)

// sectionBuilder turns a flat stream of headings and body text into pages,
// one per heading. Text before the first heading forms its own page.
// Consecutive headings with no body between them are merged.
type sectionBuilder struct {
	pages   pageList
	title   string
	current strings.Builder
}

func (b *sectionBuilder) heading(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	if b.current.Len() == 0 && b.title != "" {
		b.title += "\n" + title
		return
	}
	b.flush()
	b.title = title
}

func (b *sectionBuilder) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.current.Len() > 0 {
		b.current.WriteString("\n\n")
	}
	b.current.WriteString(t)
}

func (b *sectionBuilder) flush() {
	if b.current.Len() == 0 {
		return
	}
	text := b.current.String()
	if b.title != "" {
		text = b.title + "\n\n" + text
	}
	b.emit(text)
	b.current.Reset()
	b.title = ""
}

func (b *sectionBuilder) emit(text string) {
	b.pages = append(b.pages, document.Page{
		Number: len(b.pages) + 1,
		Text:   text,
	})
}

func (b *sectionBuilder) finish() pageList {
	b.flush()
	if b.title != "" {
		b.emit(b.title)
		b.title = ""
	}
	if b.pages == nil {
		return pageList{}
	}
	return b.pages
}
