package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/punchamoorthee/estatedocs/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures the chat completion backend.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds each HTTP exchange with the backend. Zero means 120s.
	Timeout time.Duration
}

func (o *OpenAIOptions) defaults() {
	if o.Model == "" {
		o.Model = openai.GPT4Turbo
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
}

// ChatCompleter is the subset of *openai.Client the backend needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI generates documents with a chat completion model.
type OpenAI struct {
	client ChatCompleter
	model  string
}

// NewOpenAI builds a client from opts. An API key is required.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	opts.defaults()
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: missing api key")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: opts.Model}, nil
}

// NewOpenAIWithClient wraps an existing completer.
func NewOpenAIWithClient(c ChatCompleter, model string) *OpenAI {
	if model == "" {
		model = openai.GPT4Turbo
	}
	return &OpenAI{client: c, model: model}
}

// Generate sends the system instruction and p, returning the first choice.
func (g *OpenAI) Generate(ctx context.Context, p string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: p},
		},
		MaxTokens: MaxOutputTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrGeneration, ctxErr)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: openai upstream %d: %s", domain.ErrGeneration, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrGeneration)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGeneration)
	}
	return text, nil
}
