package gemini

// GenerateRequest represents the JSON body of a generateContent call.
type GenerateRequest struct {
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Contents          []Content `json:"contents"`
	Tools             []Tool    `json:"tools,omitempty"`
}

// Content represents a single content turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents one text part of a content turn.
type Part struct {
	Text string `json:"text"`
}

// Tool declares a capability the model may use while generating. An
// empty GoogleSearch object enables live web-search grounding for the
// request.
type Tool struct {
	GoogleSearch *GoogleSearch `json:"google_search,omitempty"`
}

// GoogleSearch is the grounding capability flag. It carries no fields.
type GoogleSearch struct{}

// GenerateResponse represents the JSON body of a successful
// generateContent response.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate represents one generated candidate.
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata carries the web citations backing a grounded
// candidate. Absent when the model did not ground its answer.
type GroundingMetadata struct {
	GroundingAttributions []GroundingAttribution `json:"groundingAttributions"`
}

// GroundingAttribution is one candidate citation. Web may be nil, and
// either of its fields may be empty.
type GroundingAttribution struct {
	Web *WebSource `json:"web,omitempty"`
}

// WebSource identifies a web page used for grounding.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ErrorResponse represents the JSON body returned on non-2xx status.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError carries the remote service's error details.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
