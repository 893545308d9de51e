package ai

import (
	"context"
	"fmt"
)

// MockProvider returns deterministic responses without any network
// access. It keeps the rest of the pipeline exercisable when no API
// key or local model is available.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) ProcessText(_ context.Context, text, instruction string, opts Options) (string, error) {
	var note string
	switch opts.Agent {
	case AgentCharacterCreation:
		note = "The character takes clearer shape here, with sharper motivations and a hint of the arc to come."
	case AgentStoryMaking:
		note = "The scene gains momentum, with tighter pacing and dialogue that pulls the plot forward."
	default:
		note = "The world deepens here, its geography and cultures rendered in more vivid detail."
	}
	return fmt.Sprintf("%s\n\n[%s] %s (instruction: %s)", text, opts.Agent, note, instruction), nil
}
