package dataset

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("line %q is not a record: %v", line, err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestSink_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	s, err := OpenSink(path, Options{Sync: true})
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	if s.Resumed() || s.Existing() != 0 {
		t.Errorf("new file should not be resumed")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist before the first append")
	}

	want := []Record{
		{Instruction: "X", Input: "Q1", Output: "A1"},
		{Instruction: "X", Input: "Q2", Output: "A2"},
	}
	for _, r := range want {
		if err := s.Append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := readRecords(t, path)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSink_ResumeDoesNotTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	first, err := OpenSink(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := first.Append(Record{Instruction: "X", Input: "Q", Output: "A"}); err != nil {
			t.Fatal(err)
		}
	}

	second, err := OpenSink(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Resumed() || second.Existing() != 3 {
		t.Errorf("expected resumed with 3 lines, got resumed=%v existing=%d", second.Resumed(), second.Existing())
	}
	for i := 0; i < 2; i++ {
		if err := second.Append(Record{Instruction: "X", Input: "Q", Output: "B"}); err != nil {
			t.Fatal(err)
		}
	}
	if got := readRecords(t, path); len(got) != 5 {
		t.Errorf("expected 5 records, got %d", len(got))
	}
}

func TestSink_TerminatesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	prior := `{"instruction":"X","input":"Q","output":"A"}`
	if err := os.WriteFile(path, []byte(prior), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := OpenSink(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Existing() != 1 {
		t.Errorf("expected 1 existing line, got %d", s.Existing())
	}
	if err := s.Append(Record{Instruction: "X", Input: "Q2", Output: "A2"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] != prior {
		t.Errorf("expected prior line kept and new line separate, got %q", data)
	}
}

func TestEncodeLine_NonASCIIAndHTML(t *testing.T) {
	line, err := EncodeLine(Record{
		Instruction: "Responde como asesor",
		Input:       "¿Cuándo abre la oficina?",
		Output:      "A las 9:00 <siempre> & puntual",
	})
	if err != nil {
		t.Fatal(err)
	}
	s := string(line)
	if !strings.HasSuffix(s, "\n") || strings.Count(s, "\n") != 1 {
		t.Errorf("expected exactly one trailing newline, got %q", s)
	}
	for _, want := range []string{"¿Cuándo", "<siempre>", "&"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q written verbatim in %q", want, s)
		}
	}
	if !strings.HasPrefix(s, `{"instruction":`) {
		t.Errorf("expected instruction first, got %q", s)
	}
}

func TestEncodeLine_EscapesNewlines(t *testing.T) {
	line, err := EncodeLine(Record{Instruction: "X", Input: "a\nb", Output: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(line), "\n") != 1 {
		t.Errorf("embedded newlines must be escaped, got %q", line)
	}
}
