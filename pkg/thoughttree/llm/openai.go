package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree/errors"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAI implements Generator and Evaluator using the OpenAI chat API.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// Compile-time interface checks.
var (
	_ Generator = (*OpenAI)(nil)
	_ Evaluator = (*OpenAI)(nil)
)

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithModel sets the model used for all calls.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) { o.model = model }
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) OpenAIOption {
	return func(o *OpenAI) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(o *OpenAI) { o.temperature = t }
}

// WithBaseURL points the client at a different endpoint.
// Useful for OpenAI-compatible local servers and for tests.
func WithBaseURL(apiKey, baseURL string) OpenAIOption {
	return func(o *OpenAI) {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		o.client = openai.NewClientWithConfig(cfg)
	}
}

// NewOpenAI creates an OpenAI-backed generator/evaluator.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		client:      openai.NewClient(apiKey),
		model:       DefaultModel,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// generationOutput is the structured output contract for generation calls.
type generationOutput struct {
	Thoughts []string `json:"thoughts"`
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, parentContent, problem string, count int) ([]string, error) {
	system := generatorPrompt
	var prompt string
	if parentContent == "" {
		prompt = fmt.Sprintf(
			"Problem: %s\n\nGenerate %d distinct high-level approaches to solving this.",
			problem, count)
	} else {
		system = expanderPrompt
		prompt = fmt.Sprintf(
			"Problem: %s\n\nReasoning so far:\n%s\n\nGenerate %d distinct next steps to continue this reasoning.",
			problem, parentContent, count)
	}

	content, err := o.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var out generationOutput
	if err := unmarshalOutput(content, &out); err != nil {
		return nil, err
	}

	thoughts := out.Thoughts
	if len(thoughts) > count {
		thoughts = thoughts[:count]
	}
	return thoughts, nil
}

// Evaluate implements Evaluator.
func (o *OpenAI) Evaluate(ctx context.Context, branchContent, problem string) (Evaluation, error) {
	prompt := fmt.Sprintf(
		"Problem: %s\n\nReasoning branch to evaluate:\n%s",
		problem, branchContent)

	content, err := o.complete(ctx, evaluatorPrompt, prompt)
	if err != nil {
		return Evaluation{}, err
	}

	var eval Evaluation
	if err := unmarshalOutput(content, &eval); err != nil {
		return Evaluation{}, err
	}

	if eval.Score < 0.0 || eval.Score > 1.0 {
		return Evaluation{}, &errors.ValidationError{
			Field:   "score",
			Message: fmt.Sprintf("%v outside [0.0, 1.0]", eval.Score),
		}
	}
	return eval, nil
}

// complete runs one chat completion and returns the raw content.
func (o *OpenAI) complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if o.maxTokens > 0 {
		req.MaxTokens = o.maxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", translateAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &errors.OutputParseError{Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// unmarshalOutput parses model output into v, tolerating surrounding
// prose and markdown fences by falling back to the outermost JSON object.
func unmarshalOutput(content string, v any) error {
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), v); err == nil {
			return nil
		}
	}

	return &errors.OutputParseError{
		Input:   content,
		Message: "model output is not valid JSON",
	}
}

// translateAPIError maps go-openai errors onto the categorizable error
// types so the retry layer can classify them.
func translateAPIError(err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return &errors.HTTPError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Endpoint:   "chat/completions",
		}
	}

	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return &errors.HTTPError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
			Endpoint:   "chat/completions",
		}
	}

	return err
}
