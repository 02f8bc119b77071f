package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoint.db")
	l, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestLedger_MarkAndDone(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	done, err := l.Done(ctx, "abc", 1)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("fresh ledger should have nothing done")
	}

	if err := l.Mark(ctx, "abc", "guide.pdf", 1, 3); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if done, _ := l.Done(ctx, "abc", 1); !done {
		t.Error("expected page 1 done")
	}
	if done, _ := l.Done(ctx, "abc", 2); done {
		t.Error("page 2 should not be done")
	}
	if done, _ := l.Done(ctx, "other", 1); done {
		t.Error("other document should not be done")
	}
}

func TestLedger_MarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	for i := 0; i < 3; i++ {
		if err := l.Mark(ctx, "abc", "guide.pdf", 1, i); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	n, err := l.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestLedger_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	l, path := openTestLedger(t)
	if err := l.Mark(ctx, "abc", "guide.pdf", 7, 0); err != nil {
		t.Fatal(err)
	}
	l.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if done, _ := reopened.Done(ctx, "abc", 7); !done {
		t.Error("expected mark to survive reopen")
	}
}
