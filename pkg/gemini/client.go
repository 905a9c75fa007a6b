package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/soap-note-server/internal/domain"
)

// Client handles interactions with the Gemini generative-model REST API.
// Every request enables the Google Search grounding tool so the model
// can resolve current guideline versions rather than assume them.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewClient creates a new Gemini API client. The model identifier and
// API key are fixed for the lifetime of the client.
//
// The underlying HTTP client carries no timeout of its own: a request
// is cancelable only through its context, so a hung remote call hangs
// the invocation that issued it.
func NewClient(cfg domain.GeminiConfig, logger *logrus.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		logger:     logger,
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "Gemini",
			MaxRequests: 5,
			Interval:    cfg.BreakerInterval,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			},
		})
	}

	return c
}

// GenerateContent submits a composed prompt to the model and awaits the
// full response. The call is single-shot: no streaming, no retries. Any
// remote failure is returned for the caller's boundary to normalize.
func (c *Client) GenerateContent(ctx context.Context, prompt domain.ComposedPrompt) (*domain.ModelResponse, error) {
	if c.breaker == nil {
		return c.generate(ctx, prompt)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, prompt)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("gemini service unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.(*domain.ModelResponse), nil
}

// generate performs the actual generateContent HTTP exchange.
func (c *Client) generate(ctx context.Context, prompt domain.ComposedPrompt) (*domain.ModelResponse, error) {
	reqBody := GenerateRequest{
		SystemInstruction: &Content{
			Parts: []Part{{Text: prompt.SystemInstruction}},
		},
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt.UserMessage}}},
		},
		Tools: []Tool{{GoogleSearch: &GoogleSearch{}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%smodels/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"prompt_size": len(prompt.UserMessage),
	}).Debug("Submitting generateContent request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute generate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("gemini returned status %d (%s): %s",
				resp.StatusCode, errResp.Error.Status, errResp.Error.Message)
		}
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse generate response: %w", err)
	}

	return toModelResponse(&genResp)
}

// toModelResponse flattens the wire response into the shape the
// extractor consumes: concatenated candidate text plus raw grounding
// attributions, unfiltered.
func toModelResponse(genResp *GenerateResponse) (*domain.ModelResponse, error) {
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	candidate := genResp.Candidates[0]

	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}

	out := &domain.ModelResponse{Text: text.String()}

	if candidate.GroundingMetadata != nil {
		for _, attr := range candidate.GroundingMetadata.GroundingAttributions {
			var uri, title string
			if attr.Web != nil {
				uri = attr.Web.URI
				title = attr.Web.Title
			}
			out.Attributions = append(out.Attributions, domain.Attribution{URI: uri, Title: title})
		}
	}

	return out, nil
}
