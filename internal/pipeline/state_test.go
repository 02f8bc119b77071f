package pipeline

import (
	"fmt"
	"testing"
)

func TestRunState_Counters(t *testing.T) {
	s := NewRunState("run-1")
	s.SetDocuments(2)
	s.AddPage(false, 3, 2, 1, 0)
	s.AddPage(true, 0, 0, 0, 0)
	s.AddSkipped(4)
	s.AddCheckpointed()
	s.DocumentFinished(false)
	s.DocumentFinished(true)

	snap := s.Snapshot()
	p := snap.Progress
	if snap.ID != "run-1" {
		t.Errorf("expected run id, got %q", snap.ID)
	}
	if p.Documents != 2 || p.DocumentsDone != 1 || p.DocumentsFailed != 1 {
		t.Errorf("unexpected document counters %+v", p)
	}
	if p.Pages != 2 || p.ModelFailures != 1 || p.PagesSkipped != 4 || p.PagesCheckpointed != 1 {
		t.Errorf("unexpected page counters %+v", p)
	}
	if p.Candidates != 3 || p.Records != 2 || p.Rejected != 1 {
		t.Errorf("unexpected record counters %+v", p)
	}
}

func TestRunState_ErrorsBounded(t *testing.T) {
	s := NewRunState("")
	for i := 0; i < maxErrors+10; i++ {
		s.AddError(fmt.Sprintf("err %d", i))
	}
	errs := s.Snapshot().Progress.Errors
	if len(errs) != maxErrors {
		t.Fatalf("expected %d errors, got %d", maxErrors, len(errs))
	}
	if errs[len(errs)-1] != fmt.Sprintf("err %d", maxErrors+9) {
		t.Errorf("expected most recent error last, got %q", errs[len(errs)-1])
	}
}

func TestRunState_SnapshotIsCopy(t *testing.T) {
	s := NewRunState("")
	s.AddError("first")
	snap := s.Snapshot()
	snap.Progress.Errors[0] = "mutated"
	if got := s.Snapshot().Progress.Errors[0]; got != "first" {
		t.Errorf("snapshot shares memory with state: %q", got)
	}
}

func TestRunState_SetPhase(t *testing.T) {
	s := NewRunState("")
	s.SetPhase(PhasePage, "guide.pdf", 3)
	snap := s.Snapshot()
	if snap.Phase != PhasePage || snap.Document != "guide.pdf" || snap.Page != 3 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
