package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const sampleConfig = `
log_level: debug
aws:
  region: eu-west-1
model:
  name: openai/gpt-4o-mini
  temperature: 0.3
  max_tokens: 4000
  request_timeout: 45s
  free_models: [a/one:free, b/two:free]
run:
  concurrency: 2
  max_retries: 5
  initial_backoff: 500ms
  max_backoff: 10s
  max_consecutive_failures: 5
storage:
  backend: s3
  bucket: sentences-bucket
  prefix: hsk1
prompt:
  simple: true
`

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "eu-west-1", cfg.AWS.Region)
	require.Equal(t, "openai/gpt-4o-mini", cfg.Model.Name)
	require.InDelta(t, 0.3, cfg.Model.Temperature, 1e-9)
	require.Equal(t, 4000, cfg.Model.MaxTokens)
	require.Equal(t, 45*time.Second, cfg.Model.RequestTimeout)
	require.Equal(t, []string{"a/one:free", "b/two:free"}, cfg.Model.FreeModels)
	require.Equal(t, "https://openrouter.ai/api/v1", cfg.Model.BaseURL)
	require.Equal(t, 2, cfg.Run.Concurrency)
	require.Equal(t, 5, cfg.Run.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Run.InitialBackoff)
	require.Equal(t, 10*time.Second, cfg.Run.MaxBackoff)
	require.Equal(t, 5, cfg.Run.MaxConsecutiveFailures)
	require.Equal(t, 30*time.Second, cfg.Run.PersistTimeout)
	require.Equal(t, "sentences-bucket", cfg.Storage.Bucket)
	require.Equal(t, "hsk1", cfg.Storage.Prefix)
	require.True(t, cfg.Storage.ConditionalWrites)
	require.True(t, cfg.Prompt.Simple)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SENTENCEGEN_RUN_CONCURRENCY", "8")
	t.Setenv("SENTENCEGEN_MODEL_NAME", "Sonnet")
	t.Setenv("SENTENCEGEN_STORAGE_PREFIX", "override")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Run.Concurrency)
	require.Equal(t, "Sonnet", cfg.Model.Name)
	require.Equal(t, "override", cfg.Storage.Prefix)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("SENTENCEGEN_STORAGE_BACKEND", "fs")
	t.Setenv("SENTENCEGEN_STORAGE_PATH", "/tmp/results")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "Haiku", cfg.Model.Name)
	require.Equal(t, 4, cfg.Run.Concurrency)
	require.Equal(t, 3, cfg.Run.MaxRetries)
	require.Equal(t, "fs", cfg.Storage.Backend)
	require.Equal(t, "/tmp/results", cfg.Storage.Path)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"unknown backend":  "storage: {backend: ftp}\n",
		"s3 needs bucket":  "storage: {backend: s3}\n",
		"dynamo needs tbl": "storage: {backend: dynamodb}\n",
		"zero concurrency": "storage: {backend: memory}\nrun: {concurrency: 0}\n",
		"bad provider":     "storage: {backend: memory}\nmodel: {provider: azure}\n",
		"backoff order":    "storage: {backend: memory}\nrun: {initial_backoff: 10s, max_backoff: 1s}\n",
		"bad log level":    "storage: {backend: memory}\nlog_level: loud\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		require.Error(t, err, name)
		require.Contains(t, err.Error(), "validation failed", name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: read")
}

func TestValidate_Nil(t *testing.T) {
	require.Error(t, Validate(nil))
}
