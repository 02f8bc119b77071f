package extract

import (
	"strings"

	"github.com/dgallion1/datasetgen/internal/dataset"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema is the shape a candidate must have to become a Record.
// Extra properties are allowed and dropped.
const recordSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["instruction", "input", "output"],
	"properties": {
		"instruction": {"type": "string", "pattern": "\\S"},
		"input":       {"type": "string", "pattern": "\\S"},
		"output":      {"type": "string", "pattern": "\\S"}
	}
}`

// Validator accepts or rejects candidate records. Only structure is checked.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{
		schema: jsonschema.MustCompileString("record.json", recordSchema),
	}
}

// Validate returns the Record for a well-formed candidate. Rejection is not
// an error: ok is false and the candidate should be dropped.
func (v *Validator) Validate(candidate any) (rec dataset.Record, ok bool) {
	if err := v.schema.Validate(candidate); err != nil {
		return dataset.Record{}, false
	}
	m := candidate.(map[string]any)
	rec = dataset.Record{
		Instruction: m["instruction"].(string),
		Input:       m["input"].(string),
		Output:      m["output"].(string),
	}
	// \S in the schema only rules out ASCII whitespace.
	if strings.TrimSpace(rec.Instruction) == "" || strings.TrimSpace(rec.Input) == "" || strings.TrimSpace(rec.Output) == "" {
		return dataset.Record{}, false
	}
	return rec, true
}

// ValidateBatch splits a batch into accepted records and a rejected count.
func (v *Validator) ValidateBatch(batch Batch) ([]dataset.Record, int) {
	records := make([]dataset.Record, 0, len(batch))
	rejected := 0
	for _, c := range batch {
		if rec, ok := v.Validate(c); ok {
			records = append(records, rec)
		} else {
			rejected++
		}
	}
	return records, rejected
}
