package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider calls the Gemini API through the Google Gen AI SDK.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model, temperature: cfg.Temperature}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var gc *genai.GenerateContentConfig
	if p.temperature > 0 {
		gc = &genai.GenerateContentConfig{Temperature: genai.Ptr(p.temperature)}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), gc)
	if err != nil {
		return "", remoteError(ProviderGemini, geminiStatus(err), err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// geminiStatus is the HTTP status carried by an API error, or 0 when the
// request never got a response.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
