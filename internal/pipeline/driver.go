package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/datasetgen/internal/dataset"
	"github.com/dgallion1/datasetgen/internal/document"
	"github.com/dgallion1/datasetgen/internal/extract"
	"github.com/dgallion1/datasetgen/internal/parser"
	"github.com/dgallion1/datasetgen/internal/progress"
	"github.com/viant/afs"
)

// DefaultPacing is the pause after every model call.
const DefaultPacing = time.Second

// Sink receives accepted records.
type Sink interface {
	Append(rec dataset.Record) error
	Path() string
}

// Ledger remembers processed pages across runs.
type Ledger interface {
	Done(ctx context.Context, docHash string, page int) (bool, error)
	Mark(ctx context.Context, docHash, document string, page, records int) error
}

// Config controls a run.
type Config struct {
	DocsDir    string
	Patterns   []string
	Pacing     time.Duration
	MaxRetries int
}

// Deps are the collaborators a Driver is built from. Ledger, Progress and
// Stats are optional.
type Deps struct {
	FS        afs.Service
	Extractor *parser.Extractor
	Generator extract.Generator
	Validator *extract.Validator
	Sink      Sink
	Ledger    Ledger
	Progress  progress.Reporter
	Stats     *extract.LLMStats
	State     *RunState
	Log       *slog.Logger
}

// Summary is reported when a run ends.
type Summary struct {
	Progress
	Output   string
	Duration time.Duration
}

// Driver walks every document and page once, in order, on the calling
// goroutine. Only startup errors end a run early; everything else is logged
// and reduces the number of records produced.
type Driver struct {
	cfg       Config
	fs        afs.Service
	extractor *parser.Extractor
	gen       extract.Generator
	validator *extract.Validator
	sink      Sink
	ledger    Ledger
	progress  progress.Reporter
	stats     *extract.LLMStats
	state     *RunState
	log       *slog.Logger

	sleep   func(ctx context.Context, d time.Duration) error
	backoff func(attempt int) time.Duration
}

func NewDriver(cfg Config, deps Deps) *Driver {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"*.pdf"}
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = DefaultPacing
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	d := &Driver{
		cfg:       cfg,
		fs:        deps.FS,
		extractor: deps.Extractor,
		gen:       deps.Generator,
		validator: deps.Validator,
		sink:      deps.Sink,
		ledger:    deps.Ledger,
		progress:  deps.Progress,
		stats:     deps.Stats,
		state:     deps.State,
		log:       deps.Log,
		sleep:     sleepCtx,
		backoff:   Backoff,
	}
	if d.fs == nil {
		d.fs = afs.New()
	}
	if d.extractor == nil {
		d.extractor = parser.NewExtractor(d.fs, parser.DefaultMinPageChars, false)
	}
	if d.validator == nil {
		d.validator = extract.NewValidator()
	}
	if d.progress == nil {
		d.progress = progress.Nop{}
	}
	if d.stats == nil {
		d.stats = extract.NewLLMStats(time.Hour)
	}
	if d.state == nil {
		d.state = NewRunState("")
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	return d
}

// State exposes the live run state.
func (d *Driver) State() *RunState { return d.state }

// Run processes every discovered document. It returns an error only when
// the documents directory cannot be listed or ctx is cancelled; in the latter
// case the summary still describes the work already appended.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	d.state.SetPhase(PhaseStartup, "", 0)

	docs, err := parser.Discover(ctx, d.fs, d.cfg.DocsDir, d.cfg.Patterns)
	if err != nil {
		d.state.AddError(err.Error())
		d.state.SetPhase(PhaseFailed, "", 0)
		return d.summary(start), err
	}
	d.state.SetDocuments(len(docs))
	d.log.Info("documents discovered", "count", len(docs), "dir", d.cfg.DocsDir)

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		d.processDocument(ctx, doc)
	}

	if err := ctx.Err(); err != nil {
		d.state.SetPhase(PhaseInterrupted, "", 0)
		return d.summary(start), fmt.Errorf("run interrupted: %w", err)
	}
	d.state.SetPhase(PhaseCompleted, "", 0)
	return d.summary(start), nil
}

func (d *Driver) summary(start time.Time) Summary {
	return Summary{
		Progress: d.state.Snapshot().Progress,
		Output:   d.sink.Path(),
		Duration: time.Since(start),
	}
}

func (d *Driver) processDocument(ctx context.Context, doc document.Document) {
	log := d.log.With("document", doc.Name)
	d.state.SetPhase(PhaseDocument, doc.Name, 0)

	src, err := d.extractor.Open(ctx, doc)
	if err != nil {
		log.Error("document read failed", "error", err)
		d.state.AddError(fmt.Sprintf("%s: %s", doc.Name, err))
		d.state.DocumentFinished(true)
		return
	}
	log.Info("processing document", "pages", src.Total())

	d.progress.StartDocument(doc.Name, src.Total())
	defer d.progress.FinishDocument()

	yielded := 0
	for page := range src.Pages() {
		if ctx.Err() != nil {
			return
		}
		yielded++
		d.processPage(ctx, log, src, page)
	}
	if ctx.Err() != nil {
		return
	}

	d.state.AddSkipped(src.Total() - yielded)
	d.state.DocumentFinished(false)
}

func (d *Driver) processPage(ctx context.Context, log *slog.Logger, src *parser.Source, page document.Page) {
	name := src.Document().Name
	d.state.SetPhase(PhasePage, name, page.Number)

	if d.ledger != nil {
		done, err := d.ledger.Done(ctx, src.Hash(), page.Number)
		if err != nil {
			log.Warn("checkpoint lookup failed", "page", page.Number, "error", err)
		} else if done {
			d.state.AddCheckpointed()
			d.progress.PageDone(page.Number, 0)
			return
		}
	}

	batch, genErr := d.generate(ctx, log, page)
	if genErr != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("model call failed", "page", page.Number, "error", genErr)
		d.state.AddError(fmt.Sprintf("%s page %d: %s", name, page.Number, genErr))
	}

	records, rejected := d.validator.ValidateBatch(batch)
	appended, writeErrors := 0, 0
	for _, rec := range records {
		if err := d.sink.Append(rec); err != nil {
			log.Error("append failed", "page", page.Number, "error", err)
			d.state.AddError(fmt.Sprintf("%s page %d: %s", name, page.Number, err))
			writeErrors++
			continue
		}
		appended++
	}
	d.state.AddPage(genErr != nil, len(batch), appended, rejected, writeErrors)

	if appended > 0 {
		log.Info("page processed", "page", page.Number, "pairs", appended, "rejected", rejected)
	} else {
		log.Info("no usable pairs", "page", page.Number, "candidates", len(batch))
	}

	if genErr == nil && writeErrors == 0 && d.ledger != nil {
		if err := d.ledger.Mark(ctx, src.Hash(), name, page.Number, appended); err != nil {
			log.Warn("checkpoint mark failed", "page", page.Number, "error", err)
		}
	}
	d.progress.PageDone(page.Number, appended)

	// Pace after every model call, failed or not.
	_ = d.sleep(ctx, d.cfg.Pacing)
}

// generate calls the model, retrying transient failures with backoff. The
// batch is empty whenever the returned error is non-nil.
func (d *Driver) generate(ctx context.Context, log *slog.Logger, page document.Page) (extract.Batch, error) {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		batch, err := d.gen.Generate(ctx, page.Text)
		d.stats.Observe(time.Since(start), err)
		if err == nil {
			return batch, nil
		}
		if attempt >= d.cfg.MaxRetries || !IsRetryable(err) || ctx.Err() != nil {
			return extract.Batch{}, err
		}

		wait := d.backoff(attempt)
		log.Warn("retryable model error", "page", page.Number, "attempt", attempt+1, "retry_in", wait, "error", err)
		if serr := d.sleep(ctx, wait); serr != nil {
			return extract.Batch{}, err
		}
	}
}
