// Package ai processes text through a configurable LLM provider.
// One capability is exposed: rewrite a block of text according to an
// instruction, using an agent-specific system prompt.
package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/mhartwell/wordforge/internal/storage"
)

// Options carries per-request generation parameters.
type Options struct {
	Agent       AgentType
	Temperature float64
	MaxTokens   int
}

// Response pairs the input text with the provider's rewrite.
type Response struct {
	OriginalText  string `json:"originalText"`
	ProcessedText string `json:"processedText"`
}

// Provider is a single text-processing capability backed by one LLM
// service. Implementations must propagate failures to the caller and
// never retry on their own.
type Provider interface {
	Name() string
	ProcessText(ctx context.Context, text, instruction string, opts Options) (string, error)
}

// Processor routes text-processing requests to the configured provider.
type Processor struct {
	provider    Provider
	temperature float64
	maxTokens   int
}

// NewProcessor creates a processor for the provider named in the
// config. Known providers: gemini, ollama, mock.
func NewProcessor(ctx context.Context, cfg *storage.Config) (*Processor, error) {
	var provider Provider
	var err error

	switch cfg.AI.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(ctx, os.Getenv("GEMINI_API_KEY"), cfg.AI.GeminiModel)
	case "ollama":
		provider, err = NewOllamaProvider(cfg.AI.OllamaBaseURL, cfg.AI.OllamaModel)
	case "mock", "local":
		provider = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AI.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.AI.Provider, err)
	}

	return NewProcessorWithProvider(provider, cfg.AI.Temperature, cfg.AI.MaxTokens), nil
}

// NewProcessorWithProvider wires an explicit provider, mainly for tests.
func NewProcessorWithProvider(p Provider, temperature float64, maxTokens int) *Processor {
	return &Processor{provider: p, temperature: temperature, maxTokens: maxTokens}
}

// ProviderName returns the name of the active provider.
func (p *Processor) ProviderName() string {
	return p.provider.Name()
}

// ProcessText rewrites text according to the instruction, selecting the
// agent system prompt from the instruction's wording.
func (p *Processor) ProcessText(ctx context.Context, text, instruction string) (*Response, error) {
	opts := Options{
		Agent:       DetermineAgent(instruction),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	processed, err := p.provider.ProcessText(ctx, text, instruction, opts)
	if err != nil {
		return nil, fmt.Errorf("%s processing failed: %w", p.provider.Name(), err)
	}
	return &Response{OriginalText: text, ProcessedText: processed}, nil
}
