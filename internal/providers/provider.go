package providers

import (
	"context"
	"fmt"

	"github.com/dshills/cadetprep/internal/config"
)

// GenerateRequest contains the data sent to a model.
type GenerateRequest struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// GenerateResponse contains the raw response from a model.
type GenerateResponse struct {
	Content    string
	TokensUsed int
}

// Generator is the provider abstraction interface.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// New creates the generator selected by cfg.Provider.
func New(cfg config.Config) (Generator, error) {
	switch cfg.Provider {
	case "gemini", "google":
		return NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "ollama":
		return NewOllama(cfg.Ollama.Host, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

func (f Func) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	return f(ctx, req)
}

func (f Func) Name() string { return "func" }
