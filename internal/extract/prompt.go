package extract

import (
	"fmt"
	"strings"
)

// Language selects the wording of the extraction contract. The records the
// model writes follow the same language.
type Language string

const (
	LangSpanish Language = "es"
	LangEnglish Language = "en"
)

// DefaultLanguage matches the corpus the dataset was first built from.
const DefaultLanguage = LangSpanish

// ParseLanguage accepts "es" or "en" in any case. Empty means DefaultLanguage.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultLanguage, nil
	case LangSpanish:
		return LangSpanish, nil
	case LangEnglish:
		return LangEnglish, nil
	}
	return "", fmt.Errorf("unsupported prompt language %q (want %q or %q)", s, LangSpanish, LangEnglish)
}

type contract struct {
	instruction string
	template    string
}

var contracts = map[Language]contract{
	LangSpanish: {
		instruction: "Responde como un asesor de atención al cliente, de forma clara, profesional y orientada a resolver la consulta.",
		template: `Eres un experto creando datasets de alta calidad para fine-tuning de modelos LLM de atención al cliente y soporte normativo.
Tu tarea es analizar el texto proporcionado (extraído de un documento) y convertirlo en conocimiento explícito mediante pares de preguntas y respuestas.
Debes generar una lista de objetos JSON. Cada objeto debe tener EXACTAMENTE esta estructura:
{
    "instruction": %q,
    "input": "La pregunta o consulta derivada del texto.",
    "output": "La respuesta precisa y profesional basada SOLO en el texto proporcionado."
}

REGLAS OBLIGATORIAS:
1. La respuesta (output) debe contener la información FINAL.
   NO utilices frases como:
   - "consulte la documentación"
   - "revise la normativa"
   - "según el manual"
   - "de acuerdo al documento"
   - "puede encontrar más información"
2. No menciones documentos, páginas, manuales, portales, enlaces ni fuentes externas.
3. Si el texto NO indica claramente la respuesta, NO generes el par de pregunta y respuesta.
4. Nunca redactes respuestas genéricas o evasivas.
5. Si el texto describe pasos, requisitos, estados o reglas, debes expresarlos explícitamente.
6. No inventes información que no esté presente en el texto.
7. Si no se puede construir una respuesta concreta, devuelve: []
8. Devuelve únicamente un JSON válido (array), sin texto adicional.`,
	},
	LangEnglish: {
		instruction: "Respond as a customer support advisor, in a clear, professional way focused on resolving the inquiry.",
		template: `You are an expert at building high-quality datasets for fine-tuning customer support and regulatory guidance models.
Your task is to analyze the text you are given (extracted from a document) and turn it into explicit knowledge as question and answer pairs.
Return a list of JSON objects. Every object must have EXACTLY this structure:
{
    "instruction": %q,
    "input": "The question or inquiry derived from the text.",
    "output": "The precise, professional answer based ONLY on the text provided."
}

MANDATORY RULES:
1. The answer (output) must contain the FINAL information.
   Do NOT use phrases such as:
   - "see the documentation"
   - "review the regulations"
   - "according to the manual"
   - "according to the document"
   - "you can find more information"
2. Do not mention documents, pages, manuals, portals, links or external sources.
3. If the text does NOT clearly state the answer, do NOT generate that question and answer pair.
4. Never write generic or evasive answers.
5. If the text describes steps, requirements, states or rules, you must spell them out explicitly.
6. Do not invent information that is not present in the text.
7. If no concrete answer can be built, return: []
8. Return only a valid JSON array, with no additional text.`,
	},
}

// DefaultInstruction is the "instruction" value every record carries when
// none is configured.
func DefaultInstruction(lang Language) string {
	return contractFor(lang).instruction
}

// SystemPrompt builds the extraction contract sent as the system
// instruction with every call. instruction is the boilerplate value the
// model must copy into each record; empty means DefaultInstruction(lang).
func SystemPrompt(lang Language, instruction string) string {
	c := contractFor(lang)
	if instruction == "" {
		instruction = c.instruction
	}
	return fmt.Sprintf(c.template, instruction)
}

func contractFor(lang Language) contract {
	if c, ok := contracts[lang]; ok {
		return c
	}
	return contracts[DefaultLanguage]
}
