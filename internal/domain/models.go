package domain

// NoteRequest is the inbound payload for one note generation call.
// PatientInfo is the only required field; the rest are independently
// optional reference blocks collected by the client application. The
// caller identity travels out-of-band in the request context, never in
// the payload.
type NoteRequest struct {
	PatientInfo      string `json:"patientInfo"`
	SpecialtyFocus   string `json:"specialtyFocus,omitempty"`
	UpToDateInfo     string `json:"uptodateInfo,omitempty"`
	MicromedexInfo   string `json:"micromedexInfo,omitempty"`
	OpenEvidenceInfo string `json:"openevidenceInfo,omitempty"`
}

// ValidatedInput is the guard's output: the request fields plus the
// authenticated caller, immutable from here on.
type ValidatedInput struct {
	CallerUID string
	NoteRequest
}

// ComposedPrompt is the system instruction / user message pair submitted
// to the generative model. Built once per request, never mutated.
type ComposedPrompt struct {
	SystemInstruction string
	UserMessage       string
}

// Attribution is one candidate web citation from the model's grounding
// metadata. Either field may be empty.
type Attribution struct {
	URI   string
	Title string
}

// ModelResponse is the generative model's reply as consumed by the
// extractor: the full generated text plus whatever grounding
// attributions came back with it.
type ModelResponse struct {
	Text         string
	Attributions []Attribution
}

// Source is a citation surfaced to the caller. Attributions missing
// either field are dropped before reaching this type.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// NoteResult is the success payload returned to the caller.
type NoteResult struct {
	SOAPNote string   `json:"soapNote"`
	Sources  []Source `json:"sources"`
}
