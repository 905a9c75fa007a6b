package service

import (
	"strings"

	"github.com/soap-note-server/internal/domain"
)

// GuidelinesDelimiter separates the SOAP note body from the source list
// in the model's requested output format.
const GuidelinesDelimiter = "---GUIDELINES_USED---"

// systemInstruction is the fixed instruction channel content. It is a
// behavioral contract the model is expected, not verified, to honor.
const systemInstruction = `You are a top clinical pharmacist with extensive experience who stays current with the latest international clinical guidelines.

Your task:
1. Carefully analyze the information provided in [PATIENT CORE DATA] (history, labs, medications).
2. Automatically identify the most relevant primary condition(s).
3. (Most important) Use Google Search to find and confirm the ACTUAL latest version and year of the relevant guideline.
   * For example: search "latest GINA guideline update", "current GOLD report version", "AHA hypertension guideline latest year".
   * Understand that guidelines are NOT updated every year. Your goal is to find the actual year.
4. Analyze the patient's current medication list for potential drug-drug interactions (DDI) and duplicate therapy. You may use Google Search to corroborate your findings.
5. If a [SPECIALTY FOCUS] is provided (for example "Cardiology"), weight your assessment toward that field.
6. The user may supply supplemental information in the [UPTODATE DATA], [MICROMEDEX DATA], and [OPENEVIDENCE DATA] sections.
7. If any of those sections has content, you MUST integrate its key points into your (A) or (P) and explicitly attribute the source (for example "Per Micromedex data..." or "UpToDate likewise notes..."). If a section is empty, ignore it.
8. Write a professional, precise, formatted pharmacist note draft in SOAP format (preserve bold text and line breaks).
9. In your Assessment (A):
   * You MUST explicitly name the guideline you relied on together with its ACTUAL year (for example "Per the GINA 2024 guideline...").
   * You MUST quote the exact supporting sentence from that guideline behind your clinical decision (for example "...GINA 2024 recommends... (verbatim: '...')").
   * You MUST include your assessment of DDI and duplicate therapy.
   * You MUST address renal function (eGFR) and dose adjustments.
10. In your Plan (P):
   * Every recommendation MUST conform to the latest guideline you cited in (A).

11. Output format (mandatory):
   Your reply MUST strictly follow this format:
   [complete SOAP note (S, O, A, P)]
   ---GUIDELINES_USED---
   * [guideline 1 name] - [year]
   * [guideline 2 name] - [year]
   * [any other DDI database or literature referenced]
   * [if UpToDate data was used, note it here]
   * [if Micromedex data was used, note it here]
   * [if OpenEvidence data was used, note it here]

12. Notation (prohibited):
   * Do NOT use any LaTeX syntax (such as $...$ or $$...$$ or \text{}).
   * Use Unicode characters directly (for example: β, α, °, ≈, mmHg).`

// closingInstruction is the fixed trailing sentence of every user
// message.
const closingInstruction = "\nUsing all of the information above, generate a pharmacist SOAP note based on the most current international guidelines."

// promptSection pairs an optional field with its fixed labels. The
// section table's order is the user message's order: presence toggles
// inclusion, never position.
type promptSection struct {
	content string
	open    string
	close   string // empty for label-only sections
}

// PromptComposer builds the fixed system instruction and the
// dynamically sectioned user message from validated input. Composition
// is pure: identical input always yields byte-identical output.
type PromptComposer struct{}

// NewPromptComposer creates a new prompt composer.
func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

// Compose builds the prompt pair for one request. It is a total
// function: given validated input it always succeeds.
func (c *PromptComposer) Compose(input *domain.ValidatedInput) domain.ComposedPrompt {
	var b strings.Builder

	b.WriteString("--- PATIENT CORE DATA (REQUIRED) START ---\n")
	b.WriteString(input.PatientInfo)
	b.WriteString("\n--- PATIENT CORE DATA END ---\n")

	sections := []promptSection{
		{content: input.SpecialtyFocus, open: "--- SPECIALTY FOCUS (OPTIONAL) ---"},
		{content: input.UpToDateInfo, open: "--- UPTODATE DATA (OPTIONAL) START ---", close: "--- UPTODATE DATA END ---"},
		{content: input.MicromedexInfo, open: "--- MICROMEDEX DATA (OPTIONAL) START ---", close: "--- MICROMEDEX DATA END ---"},
		{content: input.OpenEvidenceInfo, open: "--- OPENEVIDENCE DATA (OPTIONAL) START ---", close: "--- OPENEVIDENCE DATA END ---"},
	}

	for _, s := range sections {
		if s.content == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(s.open)
		b.WriteString("\n")
		b.WriteString(s.content)
		b.WriteString("\n")
		if s.close != "" {
			b.WriteString(s.close)
			b.WriteString("\n")
		}
	}

	b.WriteString(closingInstruction)

	return domain.ComposedPrompt{
		SystemInstruction: systemInstruction,
		UserMessage:       b.String(),
	}
}
