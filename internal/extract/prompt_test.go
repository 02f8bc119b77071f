package extract

import (
	"strings"
	"testing"
)

func TestSystemPrompt_DefaultIsSpanish(t *testing.T) {
	p := SystemPrompt(DefaultLanguage, "")
	if DefaultLanguage != LangSpanish {
		t.Fatalf("expected Spanish default, got %q", DefaultLanguage)
	}
	for _, want := range []string{
		DefaultInstruction(LangSpanish),
		"REGLAS OBLIGATORIAS",
		"consulte la documentación",
		"devuelve: []",
		`"instruction"`, `"input"`, `"output"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestSystemPrompt_English(t *testing.T) {
	p := SystemPrompt(LangEnglish, "")
	for _, want := range []string{DefaultInstruction(LangEnglish), "MANDATORY RULES", "return: []", "JSON array"} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
	if strings.Contains(p, "REGLAS") {
		t.Error("English prompt should not carry Spanish rules")
	}
}

func TestSystemPrompt_UnknownLanguageFallsBack(t *testing.T) {
	if SystemPrompt("fr", "") != SystemPrompt(DefaultLanguage, "") {
		t.Error("unknown language should use the default contract")
	}
}

func TestSystemPrompt_CustomInstruction(t *testing.T) {
	p := SystemPrompt(LangEnglish, `Answer as a "tax" advisor.`)
	// The instruction is embedded as a quoted string literal.
	if !strings.Contains(p, `"Answer as a \"tax\" advisor."`) {
		t.Errorf("expected quoted custom instruction, got:\n%s", p)
	}
	if strings.Contains(p, DefaultInstruction(LangEnglish)) {
		t.Error("default instruction should be replaced")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"", LangSpanish, false},
		{"es", LangSpanish, false},
		{" EN ", LangEnglish, false},
		{"fr", "", true},
	}
	for _, tc := range tests {
		got, err := ParseLanguage(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseLanguage(%q) = %q, %v; want %q, wantErr %v", tc.in, got, err, tc.want, tc.wantErr)
		}
	}
}
