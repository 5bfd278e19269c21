package agent

import (
	"strings"

	"github.com/quentin-h/embra/internal/config"
)

// responseContract tells the cortex how to shape its reply so the batch
// parser can pick it up.
const responseContract = `## Response Format
Reply with a single JSON object of the form:
{"actions": [{"type": "<action type>", "arguments": {...}}]}
Only use the action types listed above. An empty actions list means you
choose to do nothing this cycle.`

// BuildSystemPrompt assembles the cortex system prompt for a mode from the
// mode's prompt base, the global governance rules, and the shared examples.
func BuildSystemPrompt(cfg *config.SystemConfig, mode *config.ModeConfig) string {
	var sections []string

	if base := strings.TrimSpace(mode.SystemPromptBase); base != "" {
		sections = append(sections, base)
	}
	if gov := strings.TrimSpace(cfg.SystemGovernance); gov != "" {
		sections = append(sections, "## Governance\n"+gov)
	}

	if names := actionTypeNames(mode); len(names) > 0 {
		sections = append(sections, "## Available Actions\n"+strings.Join(names, ", "))
	}

	if examples := strings.TrimSpace(cfg.SystemPromptExamples); examples != "" {
		sections = append(sections, "## Examples\n"+examples)
	}

	sections = append(sections, responseContract)
	return strings.Join(sections, "\n\n")
}

func actionTypeNames(mode *config.ModeConfig) []string {
	names := make([]string, 0, len(mode.AgentActions))
	for _, spec := range mode.AgentActions {
		names = append(names, spec.Type)
	}
	return names
}
