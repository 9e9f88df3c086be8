// Package dictionary loads CC-CEDICT entries for prompt context.
//
// Line format: Traditional Simplified [pin1 yin1] /definition 1/definition 2/
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var entryPattern = regexp.MustCompile(`^(\S+) (\S+) \[([^\]]*)\] /(.*)/\s*$`)

// Entry is one CEDICT line.
type Entry struct {
	Traditional string
	Simplified  string
	Pinyin      string
	Definitions []string
}

// Dictionary indexes entries by both traditional and simplified headwords.
type Dictionary struct {
	index map[string][]Entry
	size  int
}

// Parse reads CEDICT text. Comment lines (#) and lines that do not match the
// entry format are skipped.
func Parse(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{index: make(map[string][]Entry)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		e := Entry{
			Traditional: m[1],
			Simplified:  m[2],
			Pinyin:      m[3],
			Definitions: strings.Split(m[4], "/"),
		}
		d.add(e.Simplified, e)
		if e.Traditional != e.Simplified {
			d.add(e.Traditional, e)
		}
		d.size++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dictionary: scan: %w", err)
	}
	return d, nil
}

// Load parses the CEDICT file at path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

func (d *Dictionary) add(word string, e Entry) {
	d.index[word] = append(d.index[word], e)
}

// Lookup returns every entry whose traditional or simplified form equals word.
func (d *Dictionary) Lookup(word string) []Entry {
	if d == nil {
		return nil
	}
	return d.index[word]
}

// Len reports the number of parsed entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return d.size
}
