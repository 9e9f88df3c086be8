// Package coverage reports how well stored sentences exercise a vocabulary.
//
// A sentence is fully covered when each of its chunks is a vocabulary word,
// an extra accepted word, or contains no Han characters (punctuation, latin
// text, numbers). Only fully covered sentences count towards a word.
package coverage

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"sentence-generator/internal/domain"
)

type WordCount struct {
	Word  string
	Count int
}

type Report struct {
	// Words is in vocabulary order.
	Words            []WordCount
	TotalSentences   int
	CoveredSentences []domain.Sentence
}

// Analyze counts, for every vocabulary word, the fully covered sentences
// that use it as a chunk.
func Analyze(vocabulary, extra []string, sentences []domain.Sentence) Report {
	vocab := toSet(vocabulary)
	extras := toSet(extra)
	counts := make(map[string]int, len(vocab))

	rep := Report{TotalSentences: len(sentences)}
	for _, s := range sentences {
		used, ok := coveredWords(s, vocab, extras)
		if !ok {
			continue
		}
		rep.CoveredSentences = append(rep.CoveredSentences, s)
		for w := range used {
			counts[w]++
		}
	}

	seen := make(map[string]struct{}, len(vocabulary))
	for _, w := range vocabulary {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		rep.Words = append(rep.Words, WordCount{Word: w, Count: counts[w]})
	}
	return rep
}

func coveredWords(s domain.Sentence, vocab, extras map[string]struct{}) (map[string]struct{}, bool) {
	used := make(map[string]struct{})
	for _, c := range s.Chunks {
		zh := strings.TrimSpace(c.Chinese)
		if zh == "" {
			continue
		}
		if _, ok := vocab[zh]; ok {
			used[zh] = struct{}{}
			continue
		}
		if _, ok := extras[zh]; ok || !hasHan(zh) {
			continue
		}
		return nil, false
	}
	return used, true
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Write prints one line per word followed by totals. With limit > 0 only
// words covered fewer than limit times are listed.
func (r Report) Write(w io.Writer, limit int) error {
	n := len(r.Words)
	for i, wc := range r.Words {
		if limit > 0 && wc.Count >= limit {
			continue
		}
		if _, err := fmt.Fprintf(w, "[%d/%d] %s: %d\n", i+1, n, wc.Word, wc.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s\nTotal sentences: %d\nFully covered sentences: %d\n",
		strings.Repeat("-", 20), r.TotalSentences, len(r.CoveredSentences))
	return err
}
