package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"sentence-generator/internal/config"
	"sentence-generator/internal/domain"
	"sentence-generator/internal/integrations/llm"
	"sentence-generator/internal/storage"
	"sentence-generator/internal/storage/memstore"
	"sentence-generator/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:  "info",
		LogFormat: "text",
		Model: config.ModelConfig{
			Name:           "Haiku",
			Temperature:    0.7,
			MaxTokens:      16000,
			BaseURL:        "https://openrouter.ai/api/v1",
			RequestTimeout: 30 * time.Second,
		},
		Run: config.RunConfig{
			Concurrency:    2,
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			PersistTimeout: time.Second,
		},
		Storage: config.StorageConfig{Backend: BackendMemory, Prefix: "hsk1"},
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ---- New ----

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, Options{})
	require.Error(t, err)
}

func TestNew_UnknownModelFailsUpFront(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Name = "gpt-unknown"

	_, err := New(context.Background(), cfg, Options{Logger: discardLogger()})
	require.ErrorIs(t, err, llm.ErrUnknownModel)
}

func TestNew_OpenAIWithoutKeyOrPrefix(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Name = "openai/gpt-4o-mini"

	_, err := New(context.Background(), cfg, Options{Logger: discardLogger()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model.api_key or secrets.param_prefix")
}

func TestNew_OpenAIWithStaticKey(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Name = "free"
	cfg.Model.APIKey = "sk-test"

	_, err := New(context.Background(), cfg, Options{Logger: discardLogger()})
	require.NoError(t, err)
}

func TestNew_BedrockUsesPresetAWSConfig(t *testing.T) {
	cfg := testConfig()
	awsCfg := aws.Config{Region: "eu-west-1"}

	_, err := New(context.Background(), cfg, Options{Logger: discardLogger(), AWSConfig: &awsCfg})
	require.NoError(t, err)
}

func TestNew_MissingTemplateFile(t *testing.T) {
	cfg := testConfig()
	cfg.Prompt.TemplatePath = filepath.Join(t.TempDir(), "missing.tmpl")

	_, err := New(context.Background(), cfg, Options{Mock: true, Logger: discardLogger()})
	require.Error(t, err)
}

// ---- selectModel ----

func TestSelectModel(t *testing.T) {
	sel, err := selectModel(config.ModelConfig{Name: "Sonnet"}, false)
	require.NoError(t, err)
	require.Equal(t, llm.ProviderBedrock, sel.provider)
	require.Empty(t, sel.explicitProvider)

	sel, err = selectModel(config.ModelConfig{Name: "my-model", Provider: llm.ProviderOpenAI}, false)
	require.NoError(t, err)
	require.Equal(t, llm.ProviderOpenAI, sel.provider)
	require.Equal(t, llm.ProviderOpenAI, sel.explicitProvider)

	sel, err = selectModel(config.ModelConfig{Name: "Sonnet"}, true)
	require.NoError(t, err)
	require.Equal(t, llm.ProviderMock, sel.provider)
	require.Equal(t, "mock", sel.model)
}

// ---- Run ----

func TestRun_MockEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), Options{Mock: true, Logger: discardLogger()})
	require.NoError(t, err)

	source := writeFile(t, "words.txt", "\ufeff# hsk1\n爱\n\n八\n爱\n")
	summary, err := a.Run(ctx, source)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Outcomes, 2)

	ids, err := a.CompletedIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"八", "爱"}, ids)

	results, err := a.Results(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, "mock", r.Model)
		require.Equal(t, llm.ProviderMock, r.Provider)
		require.Len(t, r.Sentences, 2)
	}

	again, err := a.Run(ctx, source)
	require.NoError(t, err)
	require.Zero(t, again.Succeeded)
	require.Equal(t, usecase.ReasonAlreadyCompleted, again.Outcomes[0].Reason)
}

func TestRun_FilesystemBackendSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Storage = config.StorageConfig{Backend: BackendFS, Path: t.TempDir(), Prefix: "out"}
	items := []domain.VocabularyItem{{ID: "w1", Text: "好"}}

	a, err := New(ctx, cfg, Options{Mock: true, Logger: discardLogger()})
	require.NoError(t, err)
	summary, err := a.RunItems(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	b, err := New(ctx, cfg, Options{Mock: true, Logger: discardLogger()})
	require.NoError(t, err)
	summary, err = b.RunItems(ctx, items)
	require.NoError(t, err)
	require.Equal(t, usecase.ReasonAlreadyCompleted, summary.Outcomes[0].Reason)
}

func TestRun_DictionaryMissingDefinition(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Dictionary.Path = writeFile(t, "cedict.u8", "# comment\n愛 爱 [ai4] /to love/\n")

	a, err := New(ctx, cfg, Options{Mock: true, Logger: discardLogger()})
	require.NoError(t, err)

	summary, err := a.RunItems(ctx, []domain.VocabularyItem{{ID: "爱", Text: "爱"}, {ID: "猫", Text: "猫"}})
	require.NoError(t, err)
	require.Equal(t, usecase.StatusSucceeded, summary.Outcomes[0].Status)
	require.Equal(t, usecase.StatusFailed, summary.Outcomes[1].Status)
	require.Zero(t, summary.Outcomes[1].Attempts)
}

func TestRun_MissingSourceIsInputError(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), Options{Mock: true, Logger: discardLogger()})
	require.NoError(t, err)

	_, err = a.Run(ctx, filepath.Join(t.TempDir(), "nope.txt"))
	var ue *usecase.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, usecase.ErrorInvalidInput, ue.Code)
}

// ---- sourceReader ----

func TestSourceReader_S3(t *testing.T) {
	ctx := context.Background()
	bucket := memstore.New()
	require.NoError(t, bucket.Put(ctx, "lists/hsk1.txt", []byte("爱\n")))

	var opened string
	r := &sourceReader{openBucket: func(_ context.Context, name string) (objectGetter, error) {
		opened = name
		return bucket, nil
	}}

	raw, err := r.ReadSource(ctx, "s3://vocab/lists/hsk1.txt")
	require.NoError(t, err)
	require.Equal(t, "爱\n", string(raw))
	require.Equal(t, "vocab", opened)

	_, err = r.ReadSource(ctx, "s3://vocab/lists/missing.txt")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = r.ReadSource(ctx, "s3://vocab")
	require.Error(t, err)
}

func TestSourceReader_OpenBucketError(t *testing.T) {
	boom := errors.New("no credentials")
	r := &sourceReader{openBucket: func(context.Context, string) (objectGetter, error) {
		return nil, boom
	}}
	_, err := r.ReadSource(context.Background(), "s3://vocab/words.txt")
	require.ErrorIs(t, err, boom)
}

// ---- NewLogger ----

func TestNewLogger(t *testing.T) {
	require.True(t, NewLogger(io.Discard, "debug", "json").Enabled(context.Background(), slog.LevelDebug))
	require.False(t, NewLogger(io.Discard, "warn", "text").Enabled(context.Background(), slog.LevelInfo))
	require.True(t, NewLogger(io.Discard, "bogus", "text").Enabled(context.Background(), slog.LevelInfo))
}
