// Package openai is a focused client for OpenAI-compatible chat completion
// endpoints (OpenAI, OpenRouter).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sentence-generator/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	maxBodyBytes   = 4 << 20
)

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int                `json:"index"`
		Message      domain.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
	// OpenRouter reports upstream provider failures inside a 200 response.
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// KeySource supplies the bearer token for each request.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// RetryAfterHint is the delay requested by the Retry-After header, if any.
func (e *HTTPStatusError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource
	headers    map[string]string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithHeader adds a static header to every request, e.g. OpenRouter's
// HTTP-Referer and X-Title attribution headers.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a new Client. keys is consulted on every request, so a
// caching source keeps secret lookups off the hot path.
func NewClient(keys KeySource, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("openai: key source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		keys:       keys,
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolvedHTTPClient returns the configured HTTP client, or a default one
// when none was set (e.g. in tests that nil out the field).
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Generate sends the request prompt as a single user message and returns the
// first choice's content.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	return c.Chat(ctx, req.Model, []domain.ChatMessage{{Role: "user", Content: req.Prompt}}, req.Temperature, req.MaxTokens)
}

func (c *Client) Chat(ctx context.Context, model string, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	if model == "" {
		return "", errors.New("openai: model must not be empty")
	}

	apiKey, err := c.keys.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}

	payload := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if temperature > 0 {
		payload.Temperature = &temperature
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("openai: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}

	var resp chatResponse
	if decErr := json.Unmarshal(raw, &resp); decErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decErr)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai: upstream error: %w", &HTTPStatusError{
			StatusCode: resp.Error.Code,
			URL:        url,
			Body:       resp.Error.Message,
		})
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai: empty content (finish_reason=%q)", resp.Choices[0].FinishReason)
	}
	return content, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
			RetryAfter: parseRetryAfter(res.Header.Get("Retry-After")),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
