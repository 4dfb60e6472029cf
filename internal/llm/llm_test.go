package llm_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydesk/querydesk/internal/llm"
)

// fakeProvider replays scripted answers and records prompts.
type fakeProvider struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	prompts []string
	block   bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.answers) {
		return f.answers[i], nil
	}
	return "SELECT 1", nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestTranslatorPrompt(t *testing.T) {
	p := &fakeProvider{answers: []string{"  ```sql\nSELECT 1\n```  "}}
	tr := llm.NewTranslator(p)

	raw, err := tr.Translate(context.Background(), llm.Request{
		Question:   "total loan amount by spoc",
		Schema:     "Tables:\n- `loan`(`loan_amount` double)",
		Directives: []string{"Alias SUM(`loan_amount`) as `loanamount`."},
	})
	require.NoError(t, err)
	assert.Equal(t, "```sql\nSELECT 1\n```", raw)

	require.Equal(t, 1, p.calls())
	prompt := p.prompts[0]
	assert.Contains(t, prompt, "- `loan`(`loan_amount` double)")
	assert.Contains(t, prompt, `Question: "total loan amount by spoc"`)
	assert.Contains(t, prompt, "1. "+llm.BaseDirectives[0])
	n := len(llm.BaseDirectives) + 1
	assert.Contains(t, prompt, fmt.Sprintf("%d. Alias SUM(`loan_amount`) as `loanamount`.", n))
}

func TestTranslatorEmptyResponse(t *testing.T) {
	tr := llm.NewTranslator(&fakeProvider{answers: []string{"   "}})
	_, err := tr.Translate(context.Background(), llm.Request{Question: "q"})

	var rge *llm.RemoteGenerationError
	require.ErrorAs(t, err, &rge)
	assert.False(t, rge.Retryable)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestTranslatorWrapsProviderError(t *testing.T) {
	tr := llm.NewTranslator(&fakeProvider{errs: []error{errors.New("dial tcp: connection refused")}})
	_, err := tr.Translate(context.Background(), llm.Request{Question: "q"})

	var rge *llm.RemoteGenerationError
	require.ErrorAs(t, err, &rge)
	assert.Equal(t, "fake", rge.Provider)
	assert.True(t, rge.Retryable)
}

func fastConfig() llm.ResilienceConfig {
	return llm.ResilienceConfig{
		Timeout:         time.Second,
		MaxTries:        3,
		InitialBackoff:  time.Millisecond,
		BreakerFailures: 10,
		BreakerCooldown: time.Minute,
	}
}

func TestResilientRetriesRetryableErrors(t *testing.T) {
	p := &fakeProvider{
		errs:    []error{&llm.RemoteGenerationError{Provider: "fake", StatusCode: 503, Retryable: true, Err: errors.New("unavailable")}},
		answers: []string{"", "SELECT 2"},
	}
	r := llm.NewResilient(p, fastConfig())

	out, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", out)
	assert.Equal(t, 2, p.calls())
}

func TestResilientStopsOnPermanentErrors(t *testing.T) {
	p := &fakeProvider{
		errs: []error{&llm.RemoteGenerationError{Provider: "fake", StatusCode: 401, Err: errors.New("bad key")}},
	}
	r := llm.NewResilient(p, fastConfig())

	_, err := r.Generate(context.Background(), "prompt")
	var rge *llm.RemoteGenerationError
	require.ErrorAs(t, err, &rge)
	assert.Equal(t, 401, rge.StatusCode)
	assert.Equal(t, 1, p.calls())
}

func TestResilientAppliesAttemptTimeout(t *testing.T) {
	p := &fakeProvider{block: true}
	cfg := fastConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxTries = 2
	r := llm.NewResilient(p, cfg)

	_, err := r.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, p.calls())
}

func TestResilientOpensBreaker(t *testing.T) {
	fail := &llm.RemoteGenerationError{Provider: "fake", StatusCode: 500, Retryable: true, Err: errors.New("boom")}
	p := &fakeProvider{errs: []error{fail, fail, fail}}
	cfg := fastConfig()
	cfg.MaxTries = 1
	cfg.BreakerFailures = 2
	r := llm.NewResilient(p, cfg)

	for i := 0; i < 2; i++ {
		_, err := r.Generate(context.Background(), "prompt")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State())

	_, err := r.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, p.calls(), "open breaker must not call the provider")
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	_, err := llm.NewProvider(context.Background(), llm.ProviderConfig{Provider: "bard", APIKey: "k"})
	assert.Error(t, err)
}
