// Package bedrock generates text with Anthropic models hosted on AWS Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"sentence-generator/internal/domain"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 16000
)

// Aliases maps the short model names accepted in configuration to Bedrock
// global inference profiles.
var Aliases = map[string]string{
	"Haiku":  "global.anthropic.claude-haiku-4-5-20251001-v1:0",
	"Sonnet": "global.anthropic.claude-sonnet-4-5-20250929-v1:0",
	"Opus":   "global.anthropic.claude-opus-4-5-20251101-v1:0",
}

// ResolveModel returns the inference profile for an alias, or name unchanged.
func ResolveModel(name string) string {
	if id, ok := Aliases[name]; ok {
		return id
	}
	return name
}

// IsAlias reports whether name is one of the short model names.
func IsAlias(name string) bool {
	_, ok := Aliases[name]
	return ok
}

// runtimeAPI is the minimal Bedrock runtime interface required by Client.
// Defined here for testability.
type runtimeAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      *float64  `json:"temperature,omitempty"`
	Messages         []message `json:"messages"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Client wraps the Bedrock runtime InvokeModel call.
type Client struct {
	api runtimeAPI
}

func NewClient(api runtimeAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Generate sends the prompt as a single user message and returns the text of
// the response. AWS API errors are returned wrapped so callers can inspect
// their smithy error codes.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	modelID := ResolveModel(strings.TrimSpace(req.Model))
	if modelID == "" {
		return "", errors.New("bedrock: model must not be empty")
	}

	payload := invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		Messages:         []message{{Role: "user", Content: req.Prompt}},
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = defaultMaxTokens
	}
	if req.Temperature > 0 {
		t := req.Temperature
		payload.Temperature = &t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: InvokeModel %s: %w", modelID, err)
	}
	if out == nil || len(out.Body) == 0 {
		return "", errors.New("bedrock: empty response body")
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("bedrock: decode response: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("bedrock: empty content (stop_reason=%q)", resp.StopReason)
	}
	return text, nil
}
