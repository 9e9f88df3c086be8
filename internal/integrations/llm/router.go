// Package llm picks a generation provider for a configured model name.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"sentence-generator/internal/domain"
	"sentence-generator/internal/integrations/bedrock"
)

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
	ProviderMock    = "mock"
)

// FreeModel selects a random model from the free pool on every request.
const FreeModel = "free"

// DefaultFreeModels is the OpenRouter free-tier pool used when none is configured.
var DefaultFreeModels = []string{
	"tngtech/deepseek-r1t2-chimera:free",
	"nex-agi/deepseek-v3.1-nex-n1:free",
	"allenai/olmo-3.1-32b-think:free",
	"google/gemma-3-27b-it:free",
	"openai/gpt-oss-120b:free",
}

// ErrUnknownModel is returned when no provider can serve a model name.
var ErrUnknownModel = errors.New("llm: unknown model")

// Generator produces raw model text for one request.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// InferProvider returns the provider for a model name: bedrock aliases and
// anthropic model ids go to bedrock, names with a "/" or a ":free" suffix go
// to the OpenAI-compatible endpoint, gemini-* to gemini.
func InferProvider(model string) (string, error) {
	switch {
	case model == FreeModel:
		return ProviderOpenAI, nil
	case model == ProviderMock:
		return ProviderMock, nil
	case bedrock.IsAlias(model), strings.Contains(model, "anthropic."):
		return ProviderBedrock, nil
	case strings.Contains(model, "/"), strings.HasSuffix(model, ":free"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
}

// Router dispatches each request to the provider registered for it.
type Router struct {
	providers  map[string]Generator
	freeModels []string
	pick       func(n int) int
	logger     *slog.Logger
}

type Option func(*Router)

// WithFreeModels replaces the pool used for the "free" model.
func WithFreeModels(models []string) Option {
	return func(r *Router) {
		if len(models) > 0 {
			r.freeModels = models
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRouter(providers map[string]Generator, opts ...Option) (*Router, error) {
	if len(providers) == 0 {
		return nil, errors.New("llm: at least one provider is required")
	}
	r := &Router{
		providers:  providers,
		freeModels: DefaultFreeModels,
		pick:       rand.IntN,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve fills in the provider and concrete model for req. An explicit
// req.Provider wins over inference.
func (r *Router) Resolve(req domain.GenerationRequest) (domain.GenerationRequest, error) {
	if req.Model == FreeModel {
		req.Model = r.freeModels[r.pick(len(r.freeModels))]
		r.logger.Info("selected random free model", "model", req.Model, "id", req.Item.ID)
	}
	if req.Provider == "" {
		p, err := InferProvider(req.Model)
		if err != nil {
			return req, err
		}
		req.Provider = p
	}
	if req.Provider == ProviderBedrock {
		req.Model = bedrock.ResolveModel(req.Model)
	}
	return req, nil
}

// Generate resolves req and forwards it to the matching provider.
func (r *Router) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	resolved, err := r.Resolve(req)
	if err != nil {
		return "", err
	}
	g, ok := r.providers[resolved.Provider]
	if !ok {
		return "", fmt.Errorf("%w: provider %q is not configured for %q", ErrUnknownModel, resolved.Provider, resolved.Model)
	}
	return g.Generate(ctx, resolved)
}
