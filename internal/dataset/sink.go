package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// DefaultPath is the dataset file written in the working directory.
const DefaultPath = "dataset_finetuning.jsonl"

// Record is one instruction-tuning example.
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// Sink appends records to a JSONL file. The file is opened and closed on
// every Append, so a crash never leaves earlier lines unreadable.
// Only one Sink may write a given file at a time.
type Sink struct {
	path     string
	sync     bool
	resumed  bool
	existing int
}

// Options control how a Sink writes.
type Options struct {
	// Sync flushes each record to stable storage before Append returns.
	Sync bool
}

// OpenSink prepares path for appending. An existing file is never truncated;
// if its last line is unterminated a newline is appended first so new
// records start on their own line.
func OpenSink(path string, opts Options) (*Sink, error) {
	s := &Sink{path: path, sync: opts.Sync}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	lines, terminated, err := scanLines(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	s.resumed = true
	s.existing = lines
	if !terminated {
		if err := s.write([]byte("\n")); err != nil {
			return nil, fmt.Errorf("terminate last line: %w", err)
		}
	}
	return s, nil
}

// Path returns the dataset file location.
func (s *Sink) Path() string { return s.path }

// Resumed reports whether the file already existed when the sink was opened.
func (s *Sink) Resumed() bool { return s.resumed }

// Existing is the number of non-empty lines present when the sink was opened.
func (s *Sink) Existing() int { return s.existing }

// Append writes rec as a single JSON line.
func (s *Sink) Append(rec Record) error {
	line, err := EncodeLine(rec)
	if err != nil {
		return err
	}
	if err := s.write(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *Sink) write(p []byte) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	// One write call per line.
	if _, err := f.Write(p); err != nil {
		f.Close()
		return err
	}
	if s.sync {
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// EncodeLine renders rec as JSON followed by a newline. Non-ASCII text is
// written as-is and HTML characters are not escaped.
func EncodeLine(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// scanLines counts non-empty lines and reports whether the content ends
// with a newline (an empty file counts as terminated).
func scanLines(r io.Reader) (int, bool, error) {
	br := bufio.NewReader(r)
	count := 0
	terminated := true
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			terminated = line[len(line)-1] == '\n'
			if len(bytes.TrimSpace(line)) > 0 {
				count++
			}
		}
		if err == io.EOF {
			return count, terminated, nil
		}
		if err != nil {
			return 0, false, err
		}
	}
}
