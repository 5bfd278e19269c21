// Package models builds the cortex LLM from configuration and turns its
// replies into decided action batches.
package models

import (
	"context"
	"fmt"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/quentin-h/embra/internal/config"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// NewChatModel creates the ChatModel described by an LLMSpec.
func NewChatModel(ctx context.Context, spec *config.LLMSpec) (model.ToolCallingChatModel, error) {
	if spec == nil {
		return nil, fmt.Errorf("no cortex_llm configured")
	}

	switch spec.Driver {
	case "openai", "":
		return newOpenAI(ctx, spec)
	case "ollama":
		return newOllama(ctx, spec)
	default:
		return nil, fmt.Errorf("unknown llm driver %q", spec.Driver)
	}
}

func newOpenAI(ctx context.Context, spec *config.LLMSpec) (model.ToolCallingChatModel, error) {
	cfg := &einoopenai.ChatModelConfig{
		APIKey: spec.APIKey,
		Model:  spec.Model,
	}

	if spec.BaseURL != "" {
		cfg.BaseURL = spec.BaseURL
	}

	if spec.Timeout.Duration() > 0 {
		cfg.Timeout = spec.Timeout.Duration()
	} else {
		cfg.Timeout = 60 * time.Second
	}

	if spec.Options != nil {
		if temp, ok := spec.Options["temperature"].(float64); ok {
			t := float32(temp)
			cfg.Temperature = &t
		}
		if maxTokens, ok := spec.Options["max_tokens"].(float64); ok {
			n := int(maxTokens)
			cfg.MaxCompletionTokens = &n
		}
	}

	return einoopenai.NewChatModel(ctx, cfg)
}

func newOllama(ctx context.Context, spec *config.LLMSpec) (model.ToolCallingChatModel, error) {
	baseURL := spec.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	cfg := &einoollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   spec.Model,
	}

	if spec.Timeout.Duration() > 0 {
		cfg.Timeout = spec.Timeout.Duration()
	} else {
		cfg.Timeout = 300 * time.Second
	}

	opts := &einoollama.Options{}
	if spec.Options != nil {
		if temp, ok := spec.Options["temperature"].(float64); ok {
			opts.Temperature = float32(temp)
		}
		if numCtx, ok := spec.Options["num_ctx"].(float64); ok {
			opts.NumCtx = int(numCtx)
		}
	}
	cfg.Options = opts

	return einoollama.NewChatModel(ctx, cfg)
}
