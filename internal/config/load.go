package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "SENTENCEGEN"

var defaults = map[string]any{
	"log_level":                    "info",
	"log_format":                   "text",
	"aws.region":                   "",
	"model.provider":               "",
	"model.name":                   "Haiku",
	"model.temperature":            0.7,
	"model.max_tokens":             16000,
	"model.base_url":               "https://openrouter.ai/api/v1",
	"model.api_key":                "",
	"model.request_timeout":        "120s",
	"model.free_models":            []string{},
	"run.concurrency":              4,
	"run.max_retries":              3,
	"run.initial_backoff":          "1s",
	"run.max_backoff":              "30s",
	"run.max_consecutive_failures": 0,
	"run.persist_timeout":          "30s",
	"storage.backend":              "s3",
	"storage.bucket":               "",
	"storage.prefix":               "sentences",
	"storage.table":                "",
	"storage.path":                 "",
	"storage.endpoint":             "",
	"storage.use_path_style":       false,
	"storage.conditional_writes":   true,
	"prompt.simple":                false,
	"prompt.template_path":         "",
	"dictionary.path":              "",
	"secrets.param_prefix":         "",
}

// Load reads the YAML file at path, if any, applies SENTENCEGEN_* overrides
// (e.g. SENTENCEGEN_RUN_CONCURRENCY) and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("yaml")
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the validate tags on cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
