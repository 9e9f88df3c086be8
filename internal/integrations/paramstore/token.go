package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// tokenPayload is the expected JSON shape stored in SSM for an API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// TokenSource resolves an API token from a SecureString parameter holding
// {"token": "..."}. The parameter is read on first use and cached for the
// lifetime of the process; a failed read is retried on the next call.
type TokenSource struct {
	getter Getter
	name   string

	mu    sync.Mutex
	token string
}

// NewTokenSource creates a TokenSource reading parameter name.
func NewTokenSource(getter Getter, name string) (*TokenSource, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: token parameter name is empty")
	}
	return &TokenSource{getter: getter, name: name}, nil
}

// TokenParameterName joins a parameter prefix and a provider name into the
// conventional token parameter path, e.g. /sentencegen/openai-api-token.
func TokenParameterName(prefix, provider string) string {
	return strings.TrimRight(strings.TrimSpace(prefix), "/") + "/" + provider + "-api-token"
}

// APIKey returns the cached token, fetching it on first use.
func (t *TokenSource) APIKey(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token != "" {
		return t.token, nil
	}

	raw, err := t.getter.GetParameter(ctx, t.name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("paramstore: API token is empty")
	}
	t.token = tp.Token
	return t.token, nil
}

// StaticKey is a fixed API key, e.g. one supplied through configuration.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	if strings.TrimSpace(string(k)) == "" {
		return "", errors.New("paramstore: static API key is empty")
	}
	return string(k), nil
}
