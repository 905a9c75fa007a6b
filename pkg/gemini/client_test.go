package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soap-note-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(baseURL string) domain.GeminiConfig {
	return domain.GeminiConfig{
		BaseURL:        baseURL,
		Model:          "gemini-2.5-flash-preview-09-2025",
		APIKey:         "test-key",
		BreakerEnabled: false,
	}
}

func testPrompt() domain.ComposedPrompt {
	return domain.ComposedPrompt{
		SystemInstruction: "You are a clinical pharmacist.",
		UserMessage:       "65F, HTN, eGFR 42",
	}
}

func TestClient_GenerateContent(t *testing.T) {
	var captured GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-2.5-flash-preview-09-2025:generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := GenerateResponse{
			Candidates: []Candidate{
				{
					Content: Content{Parts: []Part{{Text: "S: ..."}, {Text: "\nO: ..."}}},
					GroundingMetadata: &GroundingMetadata{
						GroundingAttributions: []GroundingAttribution{
							{Web: &WebSource{URI: "https://ginasthma.org", Title: "GINA 2024"}},
							{Web: &WebSource{URI: "https://example.org"}},
							{Web: nil},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result, err := client.GenerateContent(context.Background(), testPrompt())
	require.NoError(t, err)

	// Request shape: instruction channel, one user turn, grounding on.
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "You are a clinical pharmacist.", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "65F, HTN, eGFR 42", captured.Contents[0].Parts[0].Text)
	require.Len(t, captured.Tools, 1)
	assert.NotNil(t, captured.Tools[0].GoogleSearch)

	// Candidate parts are concatenated; attributions pass through raw.
	assert.Equal(t, "S: ...\nO: ...", result.Text)
	require.Len(t, result.Attributions, 3)
	assert.Equal(t, domain.Attribution{URI: "https://ginasthma.org", Title: "GINA 2024"}, result.Attributions[0])
	assert.Equal(t, domain.Attribution{URI: "https://example.org"}, result.Attributions[1])
	assert.Equal(t, domain.Attribution{}, result.Attributions[2])
}

func TestClient_GenerateContent_NoGroundingMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := GenerateResponse{
			Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "note"}}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result, err := client.GenerateContent(context.Background(), testPrompt())
	require.NoError(t, err)

	assert.Equal(t, "note", result.Text)
	assert.Empty(t, result.Attributions)
}

func TestClient_GenerateContent_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: APIError{Code: 429, Message: "Quota exceeded", Status: "RESOURCE_EXHAUSTED"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	_, err := client.GenerateContent(context.Background(), testPrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quota exceeded")
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestClient_GenerateContent_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateResponse{})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	_, err := client.GenerateContent(context.Background(), testPrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.BreakerEnabled = true
	cfg.BreakerInterval = 30 * time.Second
	cfg.BreakerTimeout = time.Minute
	client := NewClient(cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, err := client.GenerateContent(context.Background(), testPrompt())
		require.Error(t, err)
	}

	// The breaker has tripped; the next call fails without reaching the
	// remote service.
	_, err := client.GenerateContent(context.Background(), testPrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}
