package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/llm"
	"github.com/querydesk/querydesk/internal/tools"
)

const (
	defaultAgentModel = "claude-sonnet-4-6"
	maxAgentIter      = 10
	// forceAnswerIter is the iteration after which the agent must answer.
	forceAnswerIter = 7

	forceAnswerPrompt = "You have enough data. Please provide your final answer now without calling any more tools."
)

// ToolCall represents a tool invocation request from the LLM
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// RunResult is the outcome of one agent loop.
type RunResult struct {
	Answer    string
	ToolsUsed []string
	// LastSQL is the last statement passed to execute_sql, used when the
	// final answer carries no SQL block.
	LastSQL string
}

// SQLAgent runs a multi-turn tool-calling loop against Claude or an
// Anthropic-compatible API.
type SQLAgent struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewSQLAgent(apiKey, model, baseURL string) *SQLAgent {
	if model == "" {
		model = defaultAgentModel
	}
	return &SQLAgent{
		client:    llm.NewAnthropicClient(apiKey, baseURL),
		model:     model,
		maxTokens: 4096,
	}
}

// Model returns the configured model name.
func (a *SQLAgent) Model() string { return a.model }

// Run executes the agent loop until the model stops calling tools.
func (a *SQLAgent) Run(ctx context.Context, systemPrompt, userPrompt string, agentTools []tools.Tool) (*RunResult, error) {
	toolParams := make([]anthropic.ToolUnionUnionParam, len(agentTools))
	for i, t := range agentTools {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		toolParams[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](schema),
		}
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}
	result := &RunResult{}

	for iter := 0; iter < maxAgentIter; iter++ {
		params := a.params(systemPrompt, messages)
		params.Tools = anthropic.F(toolParams)

		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("LLM call failed: %w", err)
		}

		text, pending := splitContent(resp)
		log.Debug().
			Int("iter", iter).
			Str("stop_reason", string(resp.StopReason)).
			Int("tool_calls", len(pending)).
			Msg("agent iteration")

		if resp.StopReason != "tool_use" || len(pending) == 0 {
			result.Answer = text
			return result, nil
		}

		messages = append(messages, resp.ToParam())

		var toolResults []anthropic.ContentBlockParamUnion
		for _, tc := range pending {
			result.ToolsUsed = append(result.ToolsUsed, tc.Name)
			if tc.Name == tools.ExecuteSQLName {
				if sql, ok := tc.Input["sql"].(string); ok && sql != "" {
					result.LastSQL = sql
				}
			}
			out, execErr := executeTool(ctx, tc, agentTools)
			if execErr != nil {
				log.Warn().Err(execErr).Str("tool", tc.Name).Msg("tool execution error")
				out = fmt.Sprintf("error: %v", execErr)
			}
			toolResults = append(toolResults, anthropic.NewToolResultBlock(tc.ID, out, execErr != nil))
		}

		if iter < forceAnswerIter {
			messages = append(messages, anthropic.NewUserMessage(toolResults...))
			continue
		}

		// Every tool_use needs its tool_result before the model may answer,
		// and the tool list must stay declared while tool blocks are in the
		// history.
		toolResults = append(toolResults, anthropic.NewTextBlock(forceAnswerPrompt))
		messages = append(messages, anthropic.NewUserMessage(toolResults...))
		params = a.params(systemPrompt, messages)
		params.Tools = anthropic.F(toolParams)
		params.ToolChoice = anthropic.F[anthropic.ToolChoiceUnionParam](anthropic.ToolChoiceNoneParam{
			Type: anthropic.F(anthropic.ToolChoiceNoneTypeNone),
		})
		final, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("final answer call failed: %w", err)
		}
		finalText, _ := splitContent(final)
		result.Answer = text + finalText
		return result, nil
	}

	return result, fmt.Errorf("agent loop exceeded max iterations (%d)", maxAgentIter)
}

func (a *SQLAgent) params(systemPrompt string, messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(a.maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if systemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(systemPrompt)})
	}
	return params
}

func splitContent(resp *anthropic.Message) (string, []ToolCall) {
	var text string
	var calls []ToolCall
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return text, calls
}

func executeTool(ctx context.Context, tc ToolCall, agentTools []tools.Tool) (string, error) {
	for _, t := range agentTools {
		if t.Name == tc.Name {
			return t.Execute(ctx, tc.Input)
		}
	}
	return "", fmt.Errorf("unknown tool: %s", tc.Name)
}
