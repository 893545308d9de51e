package ai

import "strings"

// AgentType selects the system prompt used when processing text.
type AgentType string

const (
	AgentWorldBuilding     AgentType = "world-building"
	AgentCharacterCreation AgentType = "character-creation"
	AgentStoryMaking       AgentType = "story-making"
)

// SystemPrompt returns the system prompt for an agent type.
func SystemPrompt(agent AgentType) string {
	switch agent {
	case AgentCharacterCreation:
		return "You are an expert character creation assistant. You help create compelling, three-dimensional characters with detailed profiles, backstories, relationships, and character arcs. Your characters should feel realistic, with clear motivations, strengths, flaws, and potential for growth."
	case AgentStoryMaking:
		return "You are an expert storytelling assistant. You help create engaging narratives with well-structured plots, vivid scenes, natural dialogue, and meaningful themes. Your stories should have clear arcs, compelling conflicts, and satisfying resolutions."
	default:
		return "You are an expert world-building assistant. You help create detailed, consistent, and immersive fictional worlds with rich geography, cultures, magic systems, and history. Your responses should be creative, detailed, and logically consistent."
	}
}

// DetermineAgent infers the agent type from the user's instruction.
// Instructions mentioning characters get the character agent; plot,
// scene, or dialogue work gets the story agent; everything else falls
// back to world building.
func DetermineAgent(instruction string) AgentType {
	lower := strings.ToLower(instruction)
	if strings.Contains(lower, "character") {
		return AgentCharacterCreation
	}
	for _, kw := range []string{"story", "plot", "scene", "dialogue"} {
		if strings.Contains(lower, kw) {
			return AgentStoryMaking
		}
	}
	return AgentWorldBuilding
}
