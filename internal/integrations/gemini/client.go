// Package gemini generates text with Google Gemini models through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"sentence-generator/internal/domain"
)

// modelsAPI is the subset of genai.Models used by Client.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ErrBlocked is returned when the response was withheld by safety filters.
var ErrBlocked = errors.New("gemini: content blocked by safety filters")

// StatusError carries the HTTP status reported by the Gemini API.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: api error %d %s: %s", e.Code, e.Status, e.Message)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.Code
}

type Client struct {
	models modelsAPI
}

// New creates a Client backed by the Gemini Developer API.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key must not be empty")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{models: gc.Models}, nil
}

func newWithModels(models modelsAPI) *Client {
	return &Client{models: models}
}

func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if req.Model == "" {
		return "", errors.New("gemini: model must not be empty")
	}
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: GenerateContent: %w", toStatusError(err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", ErrBlocked
	}
	if cand.Content == nil {
		return "", fmt.Errorf("gemini: empty content (finish_reason=%q)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty content (finish_reason=%q)", cand.FinishReason)
	}
	return text, nil
}

func toStatusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &StatusError{Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}
