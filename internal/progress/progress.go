package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives per-document progress from the pipeline.
type Reporter interface {
	StartDocument(name string, totalPages int)
	PageDone(page, pairs int)
	FinishDocument()
}

// Nop discards progress.
type Nop struct{}

func (Nop) StartDocument(string, int) {}
func (Nop) PageDone(int, int)         {}
func (Nop) FinishDocument()           {}

// Bar renders one progress bar per document.
type Bar struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	name  string
	pairs int
}

func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) StartDocument(name string, totalPages int) {
	b.name = name
	b.pairs = 0
	b.bar = progressbar.NewOptions(totalPages,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.w, "\n")
		}),
	)
}

// PageDone moves the bar to page and shows the running pair count.
func (b *Bar) PageDone(page, pairs int) {
	if b.bar == nil {
		return
	}
	b.pairs += pairs
	b.bar.Describe(fmt.Sprintf("%s (%d pairs)", b.name, b.pairs))
	_ = b.bar.Set(page)
}

func (b *Bar) FinishDocument() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}
