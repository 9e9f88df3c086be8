// Package config loads the generator configuration from a YAML file with
// SENTENCEGEN_* environment overrides.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string           `mapstructure:"log_format" validate:"oneof=text json"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Model      ModelConfig      `mapstructure:"model"`
	Run        RunConfig        `mapstructure:"run"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// ModelConfig selects the generation model. An empty Provider is inferred
// from Name.
type ModelConfig struct {
	Provider       string        `mapstructure:"provider" validate:"omitempty,oneof=openai bedrock gemini mock"`
	Name           string        `mapstructure:"name" validate:"required"`
	Temperature    float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int           `mapstructure:"max_tokens" validate:"gt=0"`
	BaseURL        string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	FreeModels     []string      `mapstructure:"free_models"`
}

type RunConfig struct {
	Concurrency            int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	MaxRetries             int           `mapstructure:"max_retries" validate:"gte=0,lte=20"`
	InitialBackoff         time.Duration `mapstructure:"initial_backoff" validate:"gt=0"`
	MaxBackoff             time.Duration `mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures" validate:"gte=0"`
	PersistTimeout         time.Duration `mapstructure:"persist_timeout" validate:"gt=0"`
}

// StorageConfig names the result destination. Bucket is required for s3,
// Table for dynamodb and Path for fs.
type StorageConfig struct {
	Backend      string `mapstructure:"backend" validate:"oneof=s3 dynamodb fs memory"`
	Bucket       string `mapstructure:"bucket" validate:"required_if=Backend s3"`
	Prefix       string `mapstructure:"prefix"`
	Table        string `mapstructure:"table" validate:"required_if=Backend dynamodb"`
	Path         string `mapstructure:"path" validate:"required_if=Backend fs"`
	Endpoint     string `mapstructure:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	// ConditionalWrites is disabled for S3-compatible stores without
	// If-None-Match support.
	ConditionalWrites bool `mapstructure:"conditional_writes"`
}

type PromptConfig struct {
	Simple       bool   `mapstructure:"simple"`
	TemplatePath string `mapstructure:"template_path"`
}

type DictionaryConfig struct {
	Path string `mapstructure:"path"`
}

type SecretsConfig struct {
	ParamPrefix string `mapstructure:"param_prefix"`
}
