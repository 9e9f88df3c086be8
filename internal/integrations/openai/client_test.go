package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sentence-generator/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://openrouter.ai/api/v1/", "https://openrouter.ai/api/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

type fakeKeys struct {
	key   string
	err   error
	calls int
}

func (f *fakeKeys) APIKey(context.Context) (string, error) {
	f.calls++
	return f.key, f.err
}

func TestNewClient_NilKeySource(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(&fakeKeys{key: "sk"})
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, c.baseURL)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)

	c, err = NewClient(&fakeKeys{key: "sk"}, WithTimeout(5*time.Second), WithBaseURL(" https://openrouter.ai/api/v1 "))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.httpClient.Timeout)
	require.Equal(t, "https://openrouter.ai/api/v1", c.baseURL)
}

// ---------------------------------------------------------------------------
// Client.Generate / Chat
// ---------------------------------------------------------------------------

type captured struct {
	path    string
	auth    string
	referer string
	body    chatRequest
}

func newTestServer(t *testing.T, status int, body string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.auth = r.Header.Get("Authorization")
			got.referer = r.Header.Get("HTTP-Referer")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "7")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	}, opts...)
	c, err := NewClient(&fakeKeys{key: "sk-test"}, opts...)
	require.NoError(t, err)
	return c
}

func genRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Item:        domain.VocabularyItem{ID: "你好", Text: "你好"},
		Prompt:      "Write sentences for 你好",
		Model:       "openai/gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   16000,
	}
}

func TestClient_Generate_HappyPath(t *testing.T) {
	var got captured
	srv := newTestServer(t, http.StatusOK, `{
		"id": "gen-123",
		"model": "openai/gpt-4o-mini",
		"choices": [{
			"index": 0,
			"message": { "role": "assistant", "content": "[{\"english\":\"Hi\"}]" },
			"finish_reason": "stop"
		}]
	}`, &got)

	c := newTestClient(t, srv, WithHeader("HTTP-Referer", "https://example.org"))
	text, err := c.Generate(context.Background(), genRequest())
	require.NoError(t, err)
	require.Equal(t, `[{"english":"Hi"}]`, text)

	require.Equal(t, "/v1/chat/completions", got.path)
	require.Equal(t, "Bearer sk-test", got.auth)
	require.Equal(t, "https://example.org", got.referer)
	require.Equal(t, "openai/gpt-4o-mini", got.body.Model)
	require.Equal(t, 16000, got.body.MaxTokens)
	require.NotNil(t, got.body.Temperature)
	require.InDelta(t, 0.7, *got.body.Temperature, 1e-9)
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "Write sentences for 你好"}}, got.body.Messages)
}

func TestClient_Chat_ZeroTemperatureOmitted(t *testing.T) {
	var got captured
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &got)

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), "m", nil, 0, 0)
	require.NoError(t, err)
	require.Nil(t, got.body.Temperature)
}

func TestClient_Chat_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := newTestServer(t, status, `{"error":"nope"}`, nil)
		c := newTestClient(t, srv)

		_, err := c.Generate(context.Background(), genRequest())
		require.Error(t, err)

		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "unexpected status")
		if status == http.StatusTooManyRequests {
			require.Equal(t, 7*time.Second, statusErr.RetryAfter)
		}
	}
}

func TestClient_Chat_UpstreamErrorInBody(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"error":{"code":502,"message":"provider returned error"}}`, nil)
	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), genRequest())
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `not-a-json`, nil)
	_, err := newTestClient(t, srv).Generate(context.Background(), genRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Chat_NoChoicesOrEmptyContent(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices":[]}`, nil)
	_, err := newTestClient(t, srv).Generate(context.Background(), genRequest())
	require.ErrorContains(t, err, "no choices")

	srv = newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "},"finish_reason":"length"}]}`, nil)
	_, err = newTestClient(t, srv).Generate(context.Background(), genRequest())
	require.ErrorContains(t, err, "empty content")
	require.ErrorContains(t, err, "length")
}

func TestClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Generate(context.Background(), genRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Chat_NetworkError(t *testing.T) {
	c, err := NewClient(&fakeKeys{key: "sk"}, WithBaseURL("http://127.0.0.1:1"), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), genRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Chat_EmptyModel(t *testing.T) {
	keys := &fakeKeys{key: "sk"}
	c, err := NewClient(keys)
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), "", nil, 0, 0)
	require.ErrorContains(t, err, "model")
	require.Zero(t, keys.calls)
}

func TestClient_Chat_KeyError(t *testing.T) {
	c, err := NewClient(&fakeKeys{err: errors.New("ssm unavailable")})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), genRequest())
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 3*time.Second, parseRetryAfter("3"))
	require.Zero(t, parseRetryAfter(""))
	require.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
	require.Zero(t, parseRetryAfter("-1"))
}
