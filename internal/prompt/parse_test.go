package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validOutput = `[
  {
    "english": "Thank you, teacher.",
    "chunks": [
      {"chinese": "谢谢", "pinyin": "xièxie", "transliteration": "thank"},
      {"chinese": "老师", "pinyin": "lǎoshī", "transliteration": "teacher"},
      {"chinese": "。", "pinyin": "。", "transliteration": ""}
    ]
  }
]`

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  [1]  ", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```\n", "[1]"},
		{"```[1]```", "```[1]```"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StripCodeFence(tc.in), "in=%q", tc.in)
	}
}

func TestParseSentences_Valid(t *testing.T) {
	out, err := ParseSentences("```json\n" + validOutput + "\n```")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Thank you, teacher.", out[0].English)
	require.Equal(t, "谢谢老师。", out[0].Chinese())
	require.Equal(t, "", out[0].Chunks[2].Transliteration)
}

func TestParseSentences_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":        `Here are your sentences!`,
		"object":          `{"english": "x", "chunks": []}`,
		"empty list":      `[]`,
		"missing english": `[{"chunks": [{"chinese": "你", "pinyin": "nǐ", "transliteration": "you"}]}]`,
		"english number":  `[{"english": 1, "chunks": [{"chinese": "你", "pinyin": "nǐ", "transliteration": "you"}]}]`,
		"missing chunks":  `[{"english": "x"}]`,
		"empty chunks":    `[{"english": "x", "chunks": []}]`,
		"chunk field":     `[{"english": "x", "chunks": [{"chinese": "你", "pinyin": "nǐ"}]}]`,
	}
	for name, raw := range cases {
		_, err := ParseSentences(raw)
		require.ErrorIs(t, err, ErrMalformedOutput, name)
	}
}
