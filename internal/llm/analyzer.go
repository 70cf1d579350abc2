// Package llm provides best-effort narrative analysis of trading
// performance via an OpenAI-compatible chat completion API (OpenRouter).
package llm

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"bybit-review/internal/errors"
)

const systemPrompt = "You are a professional trading coach with expertise in analyzing trading performance data."

const analyzerPrompt = `I'll provide you with my trading performance data and personal notes.
Please analyze this information and provide insights in the following categories:

1. Overall Performance Assessment
2. Strategy Effectiveness
3. Psychological Patterns
4. Risk Management Analysis
5. Key Strengths Identified
6. Areas for Improvement
7. Actionable Recommendations

Please format your analysis in JSON, with keys corresponding to the categories above.

## Trading Performance Data:

%TRADING_DATA%

## Trader's Personal Notes:

%USER_NOTES%

Based on this data, please provide your professional analysis in JSON format.
Focus especially on identifying patterns in profitable vs. unprofitable trades,
psychological issues that might be affecting performance, and concrete steps for improvement.`

// Analysis is the parsed LLM output, keyed by assessment category.
// When the model does not return valid JSON the whole text is kept under
// "raw_analysis".
type Analysis map[string]interface{}

// Analyzer produces a narrative analysis for a report. Implementations are
// best-effort: callers must treat any error as a skipped enrichment.
type Analyzer interface {
	Analyze(ctx context.Context, tradingData, userNotes interface{}) (Analysis, error)
}

// OpenRouterAnalyzer implements Analyzer against the OpenRouter API using
// the OpenAI-compatible chat completions endpoint.
type OpenRouterAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenRouterAnalyzer creates an analyzer for the given credentials.
func NewOpenRouterAnalyzer(apiKey, baseURL, model string) *OpenRouterAnalyzer {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenRouterAnalyzer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Analyze sends the performance summary and user notes to the model and
// parses the JSON analysis out of the response.
func (a *OpenRouterAnalyzer) Analyze(ctx context.Context, tradingData, userNotes interface{}) (Analysis, error) {
	prompt, err := buildPrompt(tradingData, userNotes)
	if err != nil {
		return nil, errors.NewEnrichmentError("openrouter", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, errors.NewEnrichmentError("openrouter", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewEnrichmentError("openrouter", errors.ErrSchemaMismatch)
	}

	return ParseAnalysis(resp.Choices[0].Message.Content), nil
}

func buildPrompt(tradingData, userNotes interface{}) (string, error) {
	data, err := json.MarshalIndent(tradingData, "", "  ")
	if err != nil {
		return "", err
	}

	notes := "None provided"
	if userNotes != nil {
		n, err := json.MarshalIndent(userNotes, "", "  ")
		if err != nil {
			return "", err
		}
		notes = string(n)
	}

	prompt := strings.Replace(analyzerPrompt, "%TRADING_DATA%", string(data), 1)
	prompt = strings.Replace(prompt, "%USER_NOTES%", notes, 1)
	return prompt, nil
}

// ParseAnalysis extracts the JSON object from a model response. Models
// often wrap JSON in markdown fences; strip them before parsing. If no
// valid JSON remains, the raw text is preserved.
func ParseAnalysis(content string) Analysis {
	jsonStr := content
	if idx := strings.Index(content, "```json"); idx >= 0 {
		jsonStr = content[idx+len("```json"):]
		if end := strings.Index(jsonStr, "```"); end >= 0 {
			jsonStr = jsonStr[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		jsonStr = content[idx+len("```"):]
		if end := strings.Index(jsonStr, "```"); end >= 0 {
			jsonStr = jsonStr[:end]
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &analysis); err != nil {
		return Analysis{"raw_analysis": content}
	}
	return analysis
}

// NoopAnalyzer is used when no API key is configured. It always reports
// that enrichment was skipped.
type NoopAnalyzer struct{}

// Analyze implements Analyzer.
func (NoopAnalyzer) Analyze(context.Context, interface{}, interface{}) (Analysis, error) {
	return nil, errors.NewEnrichmentError("noop", errors.ErrConfigInvalid)
}
