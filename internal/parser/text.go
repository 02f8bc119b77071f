package parser

import (
	"strings"
)

// TextParser handles plain text files. Form feeds separate pages, which is
// what pdftotext produces; text without them is a single page.
type TextParser struct{}

func (p *TextParser) Parse(data []byte) (Pages, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return pageList{}, nil
	}
	return splitPages(text), nil
}
