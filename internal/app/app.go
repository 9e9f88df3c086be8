// Package app wires configuration into a ready-to-run generator: storage
// backend, result repository, prompt builder, dictionary and model providers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"sentence-generator/internal/config"
	"sentence-generator/internal/dictionary"
	"sentence-generator/internal/domain"
	"sentence-generator/internal/prompt"
	"sentence-generator/internal/repository"
	"sentence-generator/internal/usecase"
)

type Options struct {
	// Mock replaces the configured model with the offline mock provider.
	Mock   bool
	Logger *slog.Logger
	// AWSConfig skips loading the default AWS configuration.
	AWSConfig *aws.Config
}

// App runs generation batches against one configured store and model.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	aws     *awsLoader
	source  usecase.SourceReader
	results *repository.Client
	orch    *usecase.Orchestrator
}

// New builds every dependency named by cfg. AWS configuration is loaded only
// when a component needs it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		aws:    &awsLoader{region: cfg.AWS.Region, preset: opts.AWSConfig},
	}

	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}
	a.results, err = repository.New(store, cfg.Storage.Prefix)
	if err != nil {
		return nil, fmt.Errorf("app: result repository: %w", err)
	}
	a.source = &sourceReader{openBucket: a.openBucket}

	prompts, err := prompt.NewBuilderFromFile(cfg.Prompt.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var dict *dictionary.Dictionary
	if cfg.Dictionary.Path != "" {
		dict, err = dictionary.Load(cfg.Dictionary.Path)
		if err != nil {
			return nil, fmt.Errorf("app: dictionary: %w", err)
		}
		logger.Info("dictionary loaded", "path", cfg.Dictionary.Path, "entries", dict.Len())
	}

	sel, err := selectModel(cfg.Model, opts.Mock)
	if err != nil {
		return nil, err
	}
	gen, err := a.newGenerator(ctx, sel)
	if err != nil {
		return nil, err
	}

	a.orch, err = usecase.NewOrchestrator(gen, a.results, prompts, usecase.Options{
		Provider:               sel.explicitProvider,
		Model:                  sel.model,
		Temperature:            cfg.Model.Temperature,
		MaxTokens:              cfg.Model.MaxTokens,
		Simple:                 cfg.Prompt.Simple,
		MaxRetries:             cfg.Run.MaxRetries,
		InitialBackoff:         cfg.Run.InitialBackoff,
		MaxBackoff:             cfg.Run.MaxBackoff,
		MaxConsecutiveFailures: cfg.Run.MaxConsecutiveFailures,
		PersistTimeout:         cfg.Run.PersistTimeout,
		Dictionary:             dict,
		Logger:                 logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: orchestrator: %w", err)
	}

	logger.Info("generator ready",
		"provider", sel.provider,
		"model", sel.model,
		"backend", cfg.Storage.Backend,
		"prefix", cfg.Storage.Prefix,
	)
	return a, nil
}

// LoadVocabulary reads a local path or s3:// URI.
func (a *App) LoadVocabulary(ctx context.Context, source string) ([]domain.VocabularyItem, error) {
	return usecase.LoadVocabulary(ctx, a.source, source)
}

// Run loads source and generates every item not yet stored.
func (a *App) Run(ctx context.Context, source string) (usecase.Summary, error) {
	items, err := a.LoadVocabulary(ctx, source)
	if err != nil {
		return usecase.Summary{}, err
	}
	return a.RunItems(ctx, items)
}

// RunItems generates every item not yet stored. Only a ledger failure is
// returned as an error; per-item failures are in the summary.
func (a *App) RunItems(ctx context.Context, items []domain.VocabularyItem) (usecase.Summary, error) {
	ledger, err := a.orch.LoadCompletionLedger(ctx)
	if err != nil {
		return usecase.Summary{}, err
	}
	return a.orch.Run(ctx, items, ledger, a.cfg.Run.Concurrency), nil
}

// CompletedIDs lists the identifiers with a stored result.
func (a *App) CompletedIDs(ctx context.Context) ([]string, error) {
	ledger, err := a.orch.LoadCompletionLedger(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.IDs(), nil
}

// Results returns every stored result.
func (a *App) Results(ctx context.Context) ([]domain.GenerationResult, error) {
	return a.results.AllResults(ctx)
}

type awsLoader struct {
	region string
	preset *aws.Config

	once sync.Once
	cfg  aws.Config
	err  error
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	l.once.Do(func() {
		if l.preset != nil {
			l.cfg = *l.preset
			return
		}
		var opts []func(*awsconfig.LoadOptions) error
		if l.region != "" {
			opts = append(opts, awsconfig.WithRegion(l.region))
		}
		l.cfg, l.err = awsconfig.LoadDefaultConfig(ctx, opts...)
		if l.err != nil {
			l.err = fmt.Errorf("app: load AWS config: %w", l.err)
		}
	})
	return l.cfg, l.err
}
