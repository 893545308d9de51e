package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mhartwell/wordforge/internal/storage"
)

func TestDetermineAgent(t *testing.T) {
	tests := []struct {
		instruction string
		want        AgentType
	}{
		{"Develop this character's backstory", AgentCharacterCreation},
		{"Add more CHARACTER depth", AgentCharacterCreation},
		{"Tighten the plot of this chapter", AgentStoryMaking},
		{"Rewrite this scene from her point of view", AgentStoryMaking},
		{"Make the dialogue feel natural", AgentStoryMaking},
		{"Expand on this story's opening", AgentStoryMaking},
		{"Describe the northern mountains in more detail", AgentWorldBuilding},
		{"", AgentWorldBuilding},
	}
	for _, tt := range tests {
		if got := DetermineAgent(tt.instruction); got != tt.want {
			t.Errorf("DetermineAgent(%q) = %q, want %q", tt.instruction, got, tt.want)
		}
	}
}

func TestSystemPromptsDistinct(t *testing.T) {
	agents := []AgentType{AgentWorldBuilding, AgentCharacterCreation, AgentStoryMaking}
	seen := make(map[string]AgentType)
	for _, a := range agents {
		p := SystemPrompt(a)
		if p == "" {
			t.Errorf("empty system prompt for %q", a)
		}
		if prev, ok := seen[p]; ok {
			t.Errorf("agents %q and %q share a system prompt", prev, a)
		}
		seen[p] = a
	}
}

type captureProvider struct {
	gotText        string
	gotInstruction string
	gotOpts        Options
	reply          string
	err            error
}

func (c *captureProvider) Name() string { return "capture" }

func (c *captureProvider) ProcessText(_ context.Context, text, instruction string, opts Options) (string, error) {
	c.gotText = text
	c.gotInstruction = instruction
	c.gotOpts = opts
	return c.reply, c.err
}

func TestProcessorRoutesToProvider(t *testing.T) {
	cp := &captureProvider{reply: "rewritten"}
	p := NewProcessorWithProvider(cp, 0.4, 800)

	resp, err := p.ProcessText(context.Background(), "draft text", "polish this scene")
	if err != nil {
		t.Fatalf("ProcessText failed: %v", err)
	}
	if resp.OriginalText != "draft text" {
		t.Errorf("original text: got %q", resp.OriginalText)
	}
	if resp.ProcessedText != "rewritten" {
		t.Errorf("processed text: got %q", resp.ProcessedText)
	}
	if cp.gotOpts.Agent != AgentStoryMaking {
		t.Errorf("agent: got %q, want %q", cp.gotOpts.Agent, AgentStoryMaking)
	}
	if cp.gotOpts.Temperature != 0.4 || cp.gotOpts.MaxTokens != 800 {
		t.Errorf("options not forwarded: %+v", cp.gotOpts)
	}
}

func TestProcessorPropagatesProviderError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	p := NewProcessorWithProvider(&captureProvider{err: wantErr}, 0.7, 1500)

	_, err := p.ProcessText(context.Background(), "text", "instruction")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestMockProviderDeterministic(t *testing.T) {
	m := NewMockProvider()
	opts := Options{Agent: AgentWorldBuilding, Temperature: 0.7, MaxTokens: 1500}

	first, err := m.ProcessText(context.Background(), "The valley was quiet.", "expand the geography", opts)
	if err != nil {
		t.Fatalf("ProcessText failed: %v", err)
	}
	second, _ := m.ProcessText(context.Background(), "The valley was quiet.", "expand the geography", opts)
	if first != second {
		t.Error("mock provider is not deterministic")
	}
	if !strings.HasPrefix(first, "The valley was quiet.") {
		t.Errorf("mock response should start with the original text, got %q", first)
	}
}

func TestNewProcessorUnknownProvider(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.AI.Provider = "frontier"

	_, err := NewProcessor(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown AI provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestNewProcessorMock(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.AI.Provider = "mock"

	p, err := NewProcessor(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	if p.ProviderName() != "mock" {
		t.Errorf("provider name: got %q", p.ProviderName())
	}
}
