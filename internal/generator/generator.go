// Package generator obtains document text from a language-generation backend.
package generator

import (
	"context"
	"fmt"
	"strings"
)

// MaxOutputTokens caps the length of one generated document.
const MaxOutputTokens = 4000

// Generator turns a prompt into document text. Implementations make a single
// attempt; errors wrap domain.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Backend names accepted by New.
const (
	BackendOpenAI = "openai"
	BackendMock   = "mock"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	OpenAI  OpenAIOptions
}

// New builds the configured backend.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendOpenAI:
		return NewOpenAI(opts.OpenAI)
	case BackendMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", opts.Backend)
	}
}
