package app

import (
	"context"
	"fmt"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"sentence-generator/internal/config"
	"sentence-generator/internal/integrations/bedrock"
	"sentence-generator/internal/integrations/gemini"
	"sentence-generator/internal/integrations/llm"
	"sentence-generator/internal/integrations/mock"
	"sentence-generator/internal/integrations/openai"
	"sentence-generator/internal/integrations/paramstore"
)

// openRouterTitle identifies the app in OpenRouter usage reports.
const openRouterTitle = "sentencegen"

type modelSelection struct {
	model string
	// provider is the provider family the model resolves to.
	provider string
	// explicitProvider is the configured provider; empty lets the router
	// infer it per request.
	explicitProvider string
}

// selectModel validates the model name up front so a typo fails the run
// instead of every item.
func selectModel(mc config.ModelConfig, useMock bool) (modelSelection, error) {
	if useMock {
		return modelSelection{model: mock.ModelName, provider: llm.ProviderMock, explicitProvider: llm.ProviderMock}, nil
	}
	sel := modelSelection{
		model:            strings.TrimSpace(mc.Name),
		provider:         mc.Provider,
		explicitProvider: mc.Provider,
	}
	if sel.provider == "" {
		p, err := llm.InferProvider(sel.model)
		if err != nil {
			return sel, fmt.Errorf("app: %w; set model.provider explicitly", err)
		}
		sel.provider = p
	}
	return sel, nil
}

func (a *App) newGenerator(ctx context.Context, sel modelSelection) (*llm.Router, error) {
	mc := a.cfg.Model

	var g llm.Generator
	switch sel.provider {
	case llm.ProviderMock:
		g = mock.NewClient()
	case llm.ProviderOpenAI:
		keys, err := a.keySource(ctx, sel.provider)
		if err != nil {
			return nil, err
		}
		c, err := openai.NewClient(keys,
			openai.WithBaseURL(mc.BaseURL),
			openai.WithTimeout(mc.RequestTimeout),
			openai.WithHeader("X-Title", openRouterTitle),
		)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		g = c
	case llm.ProviderBedrock:
		awsCfg, err := a.aws.load(ctx)
		if err != nil {
			return nil, err
		}
		api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			o.HTTPClient = awshttp.NewBuildableClient().WithTimeout(mc.RequestTimeout)
		})
		c, err := bedrock.NewClient(api)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		g = c
	case llm.ProviderGemini:
		keys, err := a.keySource(ctx, sel.provider)
		if err != nil {
			return nil, err
		}
		key, err := keys.APIKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: gemini api key: %w", err)
		}
		c, err := gemini.New(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		g = c
	default:
		return nil, fmt.Errorf("app: unknown provider %q", sel.provider)
	}

	r, err := llm.NewRouter(map[string]llm.Generator{sel.provider: g},
		llm.WithFreeModels(mc.FreeModels),
		llm.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return r, nil
}

// keySource prefers a configured API key and otherwise reads the provider
// token from SSM under secrets.param_prefix.
func (a *App) keySource(ctx context.Context, provider string) (openai.KeySource, error) {
	if key := strings.TrimSpace(a.cfg.Model.APIKey); key != "" {
		return paramstore.StaticKey(key), nil
	}
	prefix := strings.TrimSpace(a.cfg.Secrets.ParamPrefix)
	if prefix == "" {
		return nil, fmt.Errorf("app: provider %q needs model.api_key or secrets.param_prefix", provider)
	}

	awsCfg, err := a.aws.load(ctx)
	if err != nil {
		return nil, err
	}
	params, err := paramstore.New(ssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	ts, err := paramstore.NewTokenSource(params, paramstore.TokenParameterName(prefix, provider))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return ts, nil
}
