package agent

import (
	"strings"
	"testing"

	"github.com/quentin-h/embra/internal/config"
)

func TestBuildSystemPrompt(t *testing.T) {
	cfg := &config.SystemConfig{
		SystemGovernance:     "Never leave the room.",
		SystemPromptExamples: "User waves -> wave back.",
	}
	mode := &config.ModeConfig{
		SystemPromptBase: "You are a friendly greeter robot.",
		AgentActions: []config.PluginSpec{
			{Type: "speak"},
			{Type: "move"},
		},
	}

	prompt := BuildSystemPrompt(cfg, mode)

	if !strings.HasPrefix(prompt, "You are a friendly greeter robot.") {
		t.Errorf("prompt does not start with the mode base:\n%s", prompt)
	}
	for _, want := range []string{
		"## Governance\nNever leave the room.",
		"## Available Actions\nspeak, move",
		"## Examples\nUser waves -> wave back.",
		"## Response Format",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Sections appear in a stable order.
	gov := strings.Index(prompt, "## Governance")
	act := strings.Index(prompt, "## Available Actions")
	ex := strings.Index(prompt, "## Examples")
	rf := strings.Index(prompt, "## Response Format")
	if !(gov < act && act < ex && ex < rf) {
		t.Errorf("sections out of order: gov=%d act=%d ex=%d rf=%d", gov, act, ex, rf)
	}
}

func TestBuildSystemPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildSystemPrompt(&config.SystemConfig{}, &config.ModeConfig{})

	for _, header := range []string{"## Governance", "## Available Actions", "## Examples"} {
		if strings.Contains(prompt, header) {
			t.Errorf("empty section %q emitted:\n%s", header, prompt)
		}
	}
	// The response contract is always present.
	if !strings.Contains(prompt, "## Response Format") {
		t.Error("response contract missing")
	}
}
