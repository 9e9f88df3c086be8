// Package prompt renders generation prompts and parses model output into
// sentences.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"sentence-generator/internal/dictionary"
)

// Definition is the dictionary context rendered into the prompt.
type Definition struct {
	Simplified  string
	Pinyin      string
	Definitions []string
}

// Data is the template input.
type Data struct {
	Word        string
	Definitions []Definition
	Simple      bool
}

// Builder renders prompts from a template.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder parses tmplText, or the default template when it is empty.
func NewBuilder(tmplText string) (*Builder, error) {
	if strings.TrimSpace(tmplText) == "" {
		tmplText = defaultTemplate
	}
	tmpl, err := template.New("sentences").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse template: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// NewBuilderFromFile loads the template at path. An empty path selects the
// default template.
func NewBuilderFromFile(path string) (*Builder, error) {
	if strings.TrimSpace(path) == "" {
		return NewBuilder("")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read template %q: %w", path, err)
	}
	return NewBuilder(string(raw))
}

// Build renders the prompt for one word.
func (b *Builder) Build(data Data) (string, error) {
	if strings.TrimSpace(data.Word) == "" {
		return "", errors.New("prompt: word must not be empty")
	}
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt: execute template: %w", err)
	}
	return buf.String(), nil
}

// DefinitionsFrom converts dictionary entries into template definitions.
func DefinitionsFrom(entries []dictionary.Entry) []Definition {
	out := make([]Definition, 0, len(entries))
	for _, e := range entries {
		out = append(out, Definition{
			Simplified:  e.Simplified,
			Pinyin:      e.Pinyin,
			Definitions: e.Definitions,
		})
	}
	return out
}
