package llm

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/observability"
)

//go:embed prompts/translate.txt
var translatePrompt string

var translateTmpl = template.Must(template.New("translate").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(translatePrompt))

// BaseDirectives are part of every prompt.
var BaseDirectives = []string{
	"Generate MySQL syntax only.",
	"Return exactly one read-only SELECT statement. Never modify data or schema.",
	"Return only the SQL query, with no explanation and no markdown.",
	"Wrap every table and column name in backticks.",
	"Use the table aliases you declare consistently and give every aggregate a readable alias.",
}

// Request is one question to translate.
type Request struct {
	Question   string
	Schema     string
	Directives []string
}

// Translator builds the prompt and asks the provider for SQL.
type Translator struct {
	provider Provider
}

func NewTranslator(p Provider) *Translator {
	return &Translator{provider: p}
}

// Provider returns the name of the underlying provider.
func (t *Translator) Provider() string { return t.provider.Name() }

// Prompt renders the full prompt for req. The question is quoted but not
// otherwise escaped.
func (t *Translator) Prompt(req Request) (string, error) {
	directives := append(append([]string{}, BaseDirectives...), req.Directives...)
	var buf bytes.Buffer
	err := translateTmpl.Execute(&buf, struct {
		Schema     string
		Question   string
		Directives []string
	}{
		Schema:     strings.TrimSpace(req.Schema),
		Question:   strings.TrimSpace(req.Question),
		Directives: directives,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Translate returns the model's raw answer, trimmed. It is not sanitized.
func (t *Translator) Translate(ctx context.Context, req Request) (string, error) {
	prompt, err := t.Prompt(req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	raw, err := t.provider.Generate(ctx, prompt)
	observability.ObserveGeneration(t.provider.Name(), time.Since(start))
	if err != nil {
		return "", remoteError(t.provider.Name(), 0, err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &RemoteGenerationError{Provider: t.provider.Name(), Err: ErrEmptyResponse}
	}
	log.Debug().
		Str("provider", t.provider.Name()).
		Int("prompt_len", len(prompt)).
		Dur("latency", time.Since(start)).
		Msg("sql generated")
	return raw, nil
}
