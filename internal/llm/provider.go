// Package llm turns a question and a schema description into SQL text using
// a hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Provider sends one prompt to a hosted model and returns its text answer.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	case ProviderGemini, "":
		return NewGeminiProvider(ctx, cfg)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// RemoteGenerationError reports a failed or unusable call to the model API.
type RemoteGenerationError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *RemoteGenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s generation failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *RemoteGenerationError) Unwrap() error { return e.Err }

// remoteError classifies err. Throttling, timeouts and server errors are
// retryable; other HTTP statuses are not. Errors without a status are
// treated as transport failures and retried unless the caller cancelled.
func remoteError(provider string, status int, err error) *RemoteGenerationError {
	var rge *RemoteGenerationError
	if errors.As(err, &rge) {
		return rge
	}
	e := &RemoteGenerationError{Provider: provider, StatusCode: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		e.Retryable = true
	case status > 0:
		e.Retryable = false
	default:
		e.Retryable = !errors.Is(err, context.Canceled)
	}
	return e
}
