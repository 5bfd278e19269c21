package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quentin-h/embra/internal/actions"
)

// Cortex wraps the decision LLM for one active mode. Each cycle it receives
// the fused input context and returns the batch of actions to dispatch.
type Cortex struct {
	chatModel    model.ToolCallingChatModel
	systemPrompt string
}

// NewCortex builds a Cortex over an initialized chat model. The system
// prompt is assembled by the caller from the mode's prompt base, governance
// rules, and examples.
func NewCortex(chatModel model.ToolCallingChatModel, systemPrompt string) *Cortex {
	return &Cortex{chatModel: chatModel, systemPrompt: systemPrompt}
}

// decisionEnvelope is the JSON shape the cortex is prompted to reply with.
type decisionEnvelope struct {
	Actions []actions.Action `json:"actions"`
}

// Decide asks the model for the next action batch given the fused inputs.
// An empty batch is a valid decision (the agent chooses to do nothing).
func (c *Cortex) Decide(ctx context.Context, inputContext string) ([]actions.Action, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(c.systemPrompt),
		schema.UserMessage(inputContext),
	}

	reply, err := c.chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("cortex generate: %w", err)
	}

	batch, err := ParseActionBatch(reply.Content)
	if err != nil {
		return nil, fmt.Errorf("cortex reply: %w", err)
	}
	return batch, nil
}

// ParseActionBatch extracts the decided actions from a model reply. The
// reply may wrap the JSON envelope in a fenced code block or surrounding
// prose; the first top-level JSON object is used.
func ParseActionBatch(content string) ([]actions.Action, error) {
	payload := extractJSON(content)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var envelope decisionEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("decode action batch: %w", err)
	}

	for i, a := range envelope.Actions {
		if a.Type == "" {
			return nil, fmt.Errorf("action %d has no type", i)
		}
	}
	return envelope.Actions, nil
}

// extractJSON returns the first balanced top-level JSON object in s.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
