package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// ReasoningConfig holds configuration for the reasoning backend client.
type ReasoningConfig struct {
	BaseURL         string
	Model           string
	MaxPromptLength int
	MaxAttempts     int
	RetryDelay      time.Duration
	RequestTimeout  time.Duration
}

const (
	defaultOllamaURL      = "http://localhost:11434"
	defaultModel          = "qwen3:1.7b"
	defaultMaxPromptLen   = 8000
	defaultMaxAttempts    = 3
	defaultRetryDelay     = 2 * time.Second
	defaultRequestTimeout = 3 * time.Minute

	// minUsableLength is the shortest response treated as a real answer.
	// Anything shorter is retried as if the call had failed.
	minUsableLength = 50

	truncationMarker = "...[content truncated for analysis]"

	// backendErrorPrefix marks responses that embed an error report instead
	// of model output. Such responses are never returned to callers.
	backendErrorPrefix = "Error:"
)

var (
	ErrReasoningUnavailable = errors.New("reasoning backend unavailable")
	ErrEmptyResponse        = errors.New("reasoning backend returned no usable output")
)

// ReasoningClient wraps the single external text-completion capability. It
// owns prompt truncation, the retry policy, and model provisioning. No other
// component talks to the backend endpoint directly.
type ReasoningClient struct {
	baseURL    string
	model      string
	maxPrompt  int
	attempts   int
	retryDelay time.Duration
	httpClient *http.Client
}

// NewReasoningClient creates a reasoning client. Zero-valued config fields
// fall back to the compiled defaults.
func NewReasoningClient(cfg ReasoningConfig) *ReasoningClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxPromptLength == 0 {
		cfg.MaxPromptLength = defaultMaxPromptLen
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &ReasoningClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxPrompt:  cfg.MaxPromptLength,
		attempts:   cfg.MaxAttempts,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Close releases idle connections held by the client.
func (c *ReasoningClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// Model returns the configured model identifier.
func (c *ReasoningClient) Model() string {
	return c.model
}

// generateRequest is the wire format of the backend's completion endpoint.
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// generateResponse is the completion endpoint's reply.
type generateResponse struct {
	Response string `json:"response"`
}

// tagsResponse lists the models registered with the backend.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// EnsureModel checks that the configured model is registered with the backend
// and triggers a pull when it is absent. This is a one-time startup concern.
func (c *ReasoningClient) EnsureModel(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to list models: HTTP %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == c.model {
			log.Printf("Model %s is available", c.model)
			return nil
		}
	}

	log.Printf("Model %s not registered, pulling...", c.model)
	return c.pullModel(ctx)
}

// pullModel asks the backend to provision the configured model. The pull
// endpoint streams newline-delimited status objects until success.
func (c *ReasoningClient) pullModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"name": c.model})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to pull model: HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var status struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(line, &status); err != nil {
			continue
		}
		if status.Status == "success" {
			log.Printf("Model %s pulled", c.model)
			return nil
		}
	}
	return scanner.Err()
}

// Generate sends one prompt to the backend and returns its text output.
// The prompt is hard-capped at the configured maximum length. Transport
// errors, non-200 status, timeouts, and unusable output (empty, too short,
// or an embedded backend error report) are retried up to the attempt bound
// with a short fixed delay. After exhausting retries an error is returned;
// callers must treat it as "no result" and fall back, never as model output.
func (c *ReasoningClient) Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	if len(prompt) > c.maxPrompt {
		prompt = prompt[:c.maxPrompt] + truncationMarker
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		result, err := c.generateOnce(ctx, prompt, system, maxTokens)
		if err != nil {
			lastErr = err
			log.Printf("Warning: reasoning attempt %d/%d failed: %v", attempt+1, c.attempts, err)
			continue
		}

		if !usableResponse(result) {
			lastErr = ErrEmptyResponse
			log.Printf("Warning: reasoning attempt %d/%d produced insufficient output, retrying", attempt+1, c.attempts)
			continue
		}

		return result, nil
	}

	return "", fmt.Errorf("%w: %v", ErrReasoningUnavailable, lastErr)
}

// generateOnce performs a single completion call.
func (c *ReasoningClient) generateOnce(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"top_p":       0.9,
			"num_predict": maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend returned HTTP %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(out.Response), nil
}

// usableResponse reports whether a backend reply can be handed to callers.
func usableResponse(s string) bool {
	if len(s) < minUsableLength {
		return false
	}
	return !strings.HasPrefix(s, backendErrorPrefix)
}
