package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaProvider processes text through a locally running Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a provider talking to the Ollama server at
// baseURL. An empty baseURL falls back to the OLLAMA_HOST environment
// variable and then the default local address.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	var client *api.Client
	if baseURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
		}
		client = api.NewClient(parsed, http.DefaultClient)
	}
	return &OllamaProvider{client: client, model: model}, nil
}

func (o *OllamaProvider) Name() string { return "ollama" }

func (o *OllamaProvider) ProcessText(ctx context.Context, text, instruction string, opts Options) (string, error) {
	prompt := fmt.Sprintf("%s\n\n%s\n\n%s", SystemPrompt(opts.Agent), instruction, text)

	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: new(bool),
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("ollama returned an empty response")
	}
	return out, nil
}
