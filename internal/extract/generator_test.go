package extract

import (
	"errors"
	"testing"
)

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantLen int
		wantErr bool
	}{
		{"array", `[{"instruction":"X","input":"Q","output":"A"}]`, 1, false},
		{"empty array", `[]`, 0, false},
		{"fenced", "```json\n[{\"a\":1},{\"b\":2}]\n```", 2, false},
		{"bare fence", "```\n[]\n```", 0, false},
		{"null", `null`, 0, false},
		{"lone object", `{"instruction":"X","input":"Q1","output":"A1"}`, 1, false},
		{"fenced object", "```json\n{\"instruction\":\"X\"}\n```", 1, false},
		{"number", `42`, 0, true},
		{"string", `"pairs"`, 0, true},
		{"malformed", `[{"instruction":`, 0, true},
		{"prose", `Here are your pairs!`, 0, true},
		{"empty", "  \n ", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			batch, err := DecodeBatch(tc.text)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if batch == nil {
				t.Fatal("expected non-nil batch")
			}
			if len(batch) != tc.wantLen {
				t.Errorf("expected %d candidates, got %d", tc.wantLen, len(batch))
			}
		})
	}
}

func TestDecodeBatch_EmptyIsErrEmptyResponse(t *testing.T) {
	_, err := DecodeBatch("")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestRetryableErrorMessageTruncated(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	err := &RetryableError{StatusCode: 503, Message: string(long)}
	if got := len(err.Error()); got > 300 {
		t.Errorf("expected truncated message, got %d chars", got)
	}
}

func TestDecodeBatch_LoneObjectValidates(t *testing.T) {
	batch, err := DecodeBatch(`{"instruction":"X","input":"Q1","output":"A1"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, rejected := NewValidator().ValidateBatch(batch)
	if len(records) != 1 || rejected != 0 {
		t.Fatalf("expected 1 record, got %d (rejected %d)", len(records), rejected)
	}
	if records[0].Input != "Q1" || records[0].Output != "A1" {
		t.Errorf("unexpected record %+v", records[0])
	}
}
