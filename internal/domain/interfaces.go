package domain

import "context"

// GenerativeClient invokes the remote generative-model service with a
// composed prompt and live web-search grounding enabled. The call is
// single-shot and non-streaming; the full response is awaited.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, prompt ComposedPrompt) (*ModelResponse, error)
}

// NoteGenerator runs the full validate/compose/invoke/extract pipeline
// for one request. On failure the returned error is always a
// *ServiceError.
type NoteGenerator interface {
	Generate(ctx context.Context, callerUID string, req NoteRequest) (*NoteResult, error)
}
