package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sentence-generator/internal/domain"
)

// ErrMalformedOutput marks model output that is not a valid sentence list.
// A fresh generation may well succeed, so callers treat it as transient.
var ErrMalformedOutput = errors.New("prompt: malformed model output")

type rawChunk struct {
	Chinese         *string `json:"chinese"`
	Pinyin          *string `json:"pinyin"`
	Transliteration *string `json:"transliteration"`
}

type rawSentence struct {
	English *string     `json:"english"`
	Chunks  *[]rawChunk `json:"chunks"`
}

// StripCodeFence removes a surrounding markdown code block, if any.
func StripCodeFence(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	firstNewline := strings.Index(clean, "\n")
	lastFence := strings.LastIndex(clean, "```")
	if firstNewline == -1 || lastFence <= firstNewline {
		return clean
	}
	return strings.TrimSpace(clean[firstNewline:lastFence])
}

// ParseSentences decodes and validates model output.
func ParseSentences(raw string) ([]domain.Sentence, error) {
	var items []rawSentence
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformedOutput, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no sentences", ErrMalformedOutput)
	}

	out := make([]domain.Sentence, 0, len(items))
	for i, it := range items {
		if it.English == nil {
			return nil, fmt.Errorf("%w: item %d missing 'english' string field", ErrMalformedOutput, i)
		}
		if it.Chunks == nil || len(*it.Chunks) == 0 {
			return nil, fmt.Errorf("%w: item %d missing 'chunks' list field", ErrMalformedOutput, i)
		}
		s := domain.Sentence{English: *it.English, Chunks: make([]domain.Chunk, 0, len(*it.Chunks))}
		for j, c := range *it.Chunks {
			if c.Chinese == nil || c.Pinyin == nil || c.Transliteration == nil {
				return nil, fmt.Errorf("%w: chunk %d in item %d missing chinese, pinyin or transliteration", ErrMalformedOutput, j, i)
			}
			s.Chunks = append(s.Chunks, domain.Chunk{
				Chinese:         *c.Chinese,
				Pinyin:          *c.Pinyin,
				Transliteration: *c.Transliteration,
			})
		}
		out = append(out, s)
	}
	return out, nil
}
