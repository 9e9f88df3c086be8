package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"sentence-generator/internal/domain"
	"sentence-generator/internal/storage"
)

const resultExt = ".yaml"

var keyEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// Client stores generation results as YAML documents in an object store,
// one object per vocabulary identifier.
type Client struct {
	store  storage.ObjectStore
	prefix string
}

// New creates a repository Client. prefix is the key namespace results are
// written under, e.g. "sentences/hsk1".
func New(store storage.ObjectStore, prefix string) (*Client, error) {
	if store == nil {
		return nil, errors.New("repository: store must not be nil")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	return &Client{store: store, prefix: prefix}, nil
}

func (c *Client) listPrefix() string {
	if c.prefix == "" {
		return ""
	}
	return c.prefix + "/"
}

// ResultKey returns the object key for a vocabulary identifier.
func (c *Client) ResultKey(id string) string {
	return c.listPrefix() + keyEscaper.Replace(id) + resultExt
}

// idFromKey reverses ResultKey. Keys that do not look like result objects
// report ok=false.
func (c *Client) idFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, c.listPrefix())
	if !ok || strings.Contains(rest, "/") {
		return "", false
	}
	escaped, ok := strings.CutSuffix(rest, resultExt)
	if !ok || escaped == "" {
		return "", false
	}
	id, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return id, true
}

// CompletedIDs lists the identifiers that already have a stored result.
func (c *Client) CompletedIDs(ctx context.Context) ([]string, error) {
	keys, err := c.store.List(ctx, c.listPrefix())
	if err != nil {
		return nil, fmt.Errorf("repository: CompletedIDs: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := c.idFromKey(k); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsCompleted reports whether a result exists for id.
func (c *Client) IsCompleted(ctx context.Context, id string) (bool, error) {
	ok, err := c.store.Exists(ctx, c.ResultKey(id))
	if err != nil {
		return false, fmt.Errorf("repository: IsCompleted: %w", err)
	}
	return ok, nil
}

// SaveResult writes a result. It returns storage.ErrAlreadyExists (wrapped)
// when a result for the same identifier is already stored.
func (c *Client) SaveResult(ctx context.Context, result domain.GenerationResult) error {
	if result.ID == "" {
		return errors.New("repository: SaveResult: result ID is required")
	}
	doc, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("repository: SaveResult marshal: %w", err)
	}
	if err := c.store.Put(ctx, c.ResultKey(result.ID), doc); err != nil {
		return fmt.Errorf("repository: SaveResult: %w", err)
	}
	return nil
}

// GetResult reads the stored result for id.
func (c *Client) GetResult(ctx context.Context, id string) (domain.GenerationResult, error) {
	raw, err := c.store.Get(ctx, c.ResultKey(id))
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("repository: GetResult: %w", err)
	}
	var out domain.GenerationResult
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("repository: GetResult unmarshal %q: %w", id, err)
	}
	return out, nil
}

// AllResults loads every stored result in key order.
func (c *Client) AllResults(ctx context.Context) ([]domain.GenerationResult, error) {
	ids, err := c.CompletedIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GenerationResult, 0, len(ids))
	for _, id := range ids {
		r, err := c.GetResult(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
