package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	defaultModel   = "phi3"
	defaultBaseURL = "http://localhost:11434"
)

// Generator wraps a local Ollama server to provide simple prompt-based completions.
type Generator struct {
	llm       llms.Model
	modelName string
}

// NewGenerator creates a new Generator talking to the given Ollama server.
func NewGenerator(baseURL, model string) (*Generator, error) {
	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &Generator{llm: llm, modelName: model}, nil
}

// Complete sends the prompt to Ollama and returns the generated text.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.llm == nil {
		return "", errors.New("ollama generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	output, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", errors.New("ollama returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
