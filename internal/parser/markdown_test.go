package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsStartPages(t *testing.T) {
	input := `Intro paragraph before any heading.

# Refunds

Refunds are issued within **14 days**.

- Keep the receipt
- Use the original card

## Exchanges

Exchanges are free.
`
	p := &MarkdownParser{}
	pages, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := collect(pages)
	if len(got) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(got), got)
	}

	if got[0].Text != "Intro paragraph before any heading." {
		t.Errorf("page 1: got %q", got[0].Text)
	}
	if !strings.HasPrefix(got[1].Text, "Refunds\n\n") {
		t.Errorf("page 2 should start with its heading, got %q", got[1].Text)
	}
	for _, want := range []string{"within 14 days.", "Keep the receipt", "Use the original card"} {
		if !strings.Contains(got[1].Text, want) {
			t.Errorf("page 2 missing %q: %q", want, got[1].Text)
		}
	}
	if got[2].Text != "Exchanges\n\nExchanges are free." {
		t.Errorf("page 3: got %q", got[2].Text)
	}
	for i, pg := range got {
		if pg.Number != i+1 {
			t.Errorf("page[%d]: expected number %d, got %d", i, i+1, pg.Number)
		}
	}
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "# Setup\n\n```\nmake install\n```\n"
	p := &MarkdownParser{}
	pages, err := p.Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := collect(pages)
	if len(got) != 1 {
		t.Fatalf("expected 1 page, got %d", len(got))
	}
	if !strings.Contains(got[0].Text, "make install") {
		t.Errorf("expected code content, got %q", got[0].Text)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	pages, err := p.Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages.Len() != 0 {
		t.Errorf("expected 0 pages, got %d", pages.Len())
	}
}
