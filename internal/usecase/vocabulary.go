package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"sentence-generator/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SourceReader fetches the raw bytes of a vocabulary source such as a local
// path or an s3:// URI.
type SourceReader interface {
	ReadSource(ctx context.Context, source string) ([]byte, error)
}

// LoadVocabulary reads and parses a vocabulary source. Sources ending in
// .yaml or .yml are parsed as YAML, everything else as plain text.
func LoadVocabulary(ctx context.Context, src SourceReader, source string) ([]domain.VocabularyItem, error) {
	if strings.TrimSpace(source) == "" {
		return nil, newError(ErrorInvalidInput, "empty_source", nil)
	}
	raw, err := src.ReadSource(ctx, source)
	if err != nil {
		return nil, newError(ErrorInvalidInput, "read_failed", err)
	}
	return ParseVocabulary(raw, isYAMLSource(source))
}

func isYAMLSource(source string) bool {
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ParseVocabulary parses raw vocabulary bytes. Identifiers are unique in the
// result; later duplicates are dropped.
func ParseVocabulary(raw []byte, asYAML bool) ([]domain.VocabularyItem, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var (
		items []domain.VocabularyItem
		err   error
	)
	if asYAML {
		items, err = parseYAMLVocabulary(raw)
	} else {
		items, err = parseTextVocabulary(raw)
	}
	if err != nil {
		return nil, newError(ErrorInvalidInput, "malformed_source", err)
	}

	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, newError(ErrorInvalidInput, "empty_vocabulary", nil)
	}
	return out, nil
}

// parseTextVocabulary reads one item per line. "#" starts a comment line and
// "key<TAB>text" gives an explicit identifier.
func parseTextVocabulary(raw []byte) ([]domain.VocabularyItem, error) {
	var items []domain.VocabularyItem
	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, text, hasKey := strings.Cut(line, "\t")
		if !hasKey {
			items = append(items, domain.VocabularyItem{ID: trimmed, Text: trimmed})
			continue
		}
		key, text = strings.TrimSpace(key), strings.TrimSpace(text)
		if key == "" || text == "" {
			return nil, fmt.Errorf("line %d: key and text must both be set", i+1)
		}
		items = append(items, domain.VocabularyItem{ID: key, Text: text})
	}
	return items, nil
}

type yamlItem struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

// parseYAMLVocabulary accepts a sequence whose entries are either plain
// strings or {key, text} mappings.
func parseYAMLVocabulary(raw []byte) ([]domain.VocabularyItem, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, errors.New("vocabulary yaml must be a list")
	}

	var items []domain.VocabularyItem
	for i, n := range doc.Content[0].Content {
		switch n.Kind {
		case yaml.ScalarNode:
			text := strings.TrimSpace(n.Value)
			if text == "" {
				continue
			}
			items = append(items, domain.VocabularyItem{ID: text, Text: text})
		case yaml.MappingNode:
			var yi yamlItem
			if err := n.Decode(&yi); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			text := strings.TrimSpace(yi.Text)
			if text == "" {
				return nil, fmt.Errorf("entry %d: text is required", i+1)
			}
			key := strings.TrimSpace(yi.Key)
			if key == "" {
				key = text
			}
			items = append(items, domain.VocabularyItem{ID: key, Text: text})
		default:
			return nil, fmt.Errorf("entry %d: expected a string or a {key, text} mapping", i+1)
		}
	}
	return items, nil
}
