package domain

import "time"

// Chunk is one segmented word of a sentence.
type Chunk struct {
	Chinese         string `json:"chinese" yaml:"chinese"`
	Pinyin          string `json:"pinyin" yaml:"pinyin"`
	Transliteration string `json:"transliteration" yaml:"transliteration"`
}

// Sentence is a single generated example sentence.
type Sentence struct {
	English string  `json:"english" yaml:"english"`
	Chunks  []Chunk `json:"chunks" yaml:"chunks"`
}

// Chinese joins the chunks back into the full sentence.
func (s Sentence) Chinese() string {
	n := 0
	for _, c := range s.Chunks {
		n += len(c.Chinese)
	}
	buf := make([]byte, 0, n)
	for _, c := range s.Chunks {
		buf = append(buf, c.Chinese...)
	}
	return string(buf)
}

// GenerationResult is the persisted output for one vocabulary item.
type GenerationResult struct {
	ID            string     `yaml:"id"`
	Text          string     `yaml:"text"`
	Provider      string     `yaml:"provider"`
	Model         string     `yaml:"model"`
	GeneratedAt   time.Time  `yaml:"generated_at"`
	RequestBytes  int        `yaml:"request_bytes"`
	ResponseBytes int        `yaml:"response_bytes"`
	Attempts      int        `yaml:"attempts"`
	RunID         string     `yaml:"run_id"`
	Sentences     []Sentence `yaml:"sentences"`
}
