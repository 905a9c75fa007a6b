package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/soap-note-server/internal/domain"
)

// NoteService orchestrates the note generation pipeline: validate,
// compose, invoke, extract. Stages run strictly in order, each fully
// resolved before the next starts; once a stage fails, the remaining
// stages are skipped and the failure is normalized to exactly one typed
// error at this boundary.
type NoteService struct {
	guard    *RequestGuard
	composer *PromptComposer
	client   domain.GenerativeClient
	logger   *logrus.Logger
}

// NewNoteService creates a new note generation service.
func NewNoteService(client domain.GenerativeClient, logger *logrus.Logger) *NoteService {
	return &NoteService{
		guard:    NewRequestGuard(logger),
		composer: NewPromptComposer(),
		client:   client,
		logger:   logger,
	}
}

// Generate runs the full pipeline for one request. The caller always
// receives either a complete result or a single *ServiceError, never a
// partial note.
func (s *NoteService) Generate(ctx context.Context, callerUID string, req domain.NoteRequest) (result *domain.NoteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Note generation panicked")
			result, err = nil, domain.NewInternal(fmt.Sprintf("AI engine error: %v", r), nil)
			return
		}
		if err != nil {
			result, err = nil, domain.AsServiceError(err)
		}
	}()

	input, err := s.guard.Validate(callerUID, req)
	if err != nil {
		return nil, err
	}

	prompt := s.composer.Compose(input)

	resp, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).WithField("uid", input.CallerUID).Error("Generative model invocation failed")
		return nil, domain.NewInternal(fmt.Sprintf("AI engine error: %v", err), err)
	}

	// Best-effort structural check. The model's adherence to the output
	// contract is requested, not verified, so a missing delimiter is a
	// diagnostic, never an error.
	if !strings.Contains(resp.Text, GuidelinesDelimiter) {
		s.logger.WithField("uid", input.CallerUID).Warn("Model response is missing the guidelines delimiter")
	}

	return extractResult(resp), nil
}

// extractResult maps the model response onto the caller-facing result.
// The note text passes through verbatim; attributions survive only with
// both a URI and a title, in their original order, duplicates included.
func extractResult(resp *domain.ModelResponse) *domain.NoteResult {
	result := &domain.NoteResult{
		SOAPNote: resp.Text,
		Sources:  []domain.Source{},
	}
	for _, attr := range resp.Attributions {
		if attr.URI == "" || attr.Title == "" {
			continue
		}
		result.Sources = append(result.Sources, domain.Source{URI: attr.URI, Title: attr.Title})
	}
	return result
}
