package pipeline

import (
	"sync"
	"time"
)

// Phase is where a run currently is.
type Phase string

const (
	PhaseStartup     Phase = "startup"
	PhaseDocument    Phase = "document"
	PhasePage        Phase = "page"
	PhaseCompleted   Phase = "completed"
	PhaseInterrupted Phase = "interrupted"
	PhaseFailed      Phase = "failed"
)

// maxErrors bounds the error list kept in memory.
const maxErrors = 50

// Progress counts what a run has done so far.
type Progress struct {
	Documents         int      `json:"documents"`
	DocumentsDone     int      `json:"documents_done"`
	DocumentsFailed   int      `json:"documents_failed"`
	Pages             int      `json:"pages"`
	PagesSkipped      int      `json:"pages_skipped"`
	PagesCheckpointed int      `json:"pages_checkpointed"`
	ModelFailures     int      `json:"model_failures"`
	Candidates        int      `json:"candidates"`
	Records           int      `json:"records"`
	Rejected          int      `json:"rejected"`
	WriteErrors       int      `json:"write_errors"`
	Errors            []string `json:"errors"`
}

// RunState tracks a pipeline run. It is written by the driver and may be
// read concurrently by the status API.
type RunState struct {
	mu sync.Mutex

	ID       string
	Phase    Phase
	Document string
	Page     int
	Progress Progress

	StartedAt time.Time
	UpdatedAt time.Time
}

func NewRunState(id string) *RunState {
	now := time.Now()
	return &RunState{
		ID:        id,
		Phase:     PhaseStartup,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetPhase updates the phase and current position atomically.
func (s *RunState) SetPhase(phase Phase, document string, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = phase
	s.Document = document
	s.Page = page
	s.UpdatedAt = time.Now()
}

// SetDocuments records how many documents were discovered.
func (s *RunState) SetDocuments(n int) {
	s.update(func(p *Progress) { p.Documents = n })
}

// AddError records an error, keeping only the most recent ones.
func (s *RunState) AddError(err string) {
	s.update(func(p *Progress) {
		p.Errors = append(p.Errors, err)
		if len(p.Errors) > maxErrors {
			p.Errors = p.Errors[len(p.Errors)-maxErrors:]
		}
	})
}

// DocumentFinished counts a document as done or failed.
func (s *RunState) DocumentFinished(failed bool) {
	s.update(func(p *Progress) {
		if failed {
			p.DocumentsFailed++
		} else {
			p.DocumentsDone++
		}
	})
}

// AddSkipped counts pages dropped for having too little text.
func (s *RunState) AddSkipped(n int) {
	s.update(func(p *Progress) { p.PagesSkipped += n })
}

// AddCheckpointed counts a page skipped because it was already processed.
func (s *RunState) AddCheckpointed() {
	s.update(func(p *Progress) { p.PagesCheckpointed++ })
}

// AddPage records the outcome of one model call.
func (s *RunState) AddPage(modelFailed bool, candidates, records, rejected, writeErrors int) {
	s.update(func(p *Progress) {
		p.Pages++
		if modelFailed {
			p.ModelFailures++
		}
		p.Candidates += candidates
		p.Records += records
		p.Rejected += rejected
		p.WriteErrors += writeErrors
	})
}

func (s *RunState) update(fn func(p *Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.Progress)
	s.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	Phase     Phase     `json:"phase"`
	Document  string    `json:"document,omitempty"`
	Page      int       `json:"page,omitempty"`
	Progress  Progress  `json:"progress"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress := s.Progress
	progress.Errors = append([]string{}, s.Progress.Errors...)
	return RunSnapshot{
		ID:        s.ID,
		Phase:     s.Phase,
		Document:  s.Document,
		Page:      s.Page,
		Progress:  progress,
		StartedAt: s.StartedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
