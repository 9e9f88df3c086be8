// Package mock is an offline generator that returns fixed sentences built
// around the requested word. It never touches the network.
package mock

import (
	"context"
	"encoding/json"
	"fmt"

	"sentence-generator/internal/domain"
)

// ModelName is reported as the model of mock results.
const ModelName = "mock"

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	word := req.Item.Text
	sentences := []domain.Sentence{
		{
			English: fmt.Sprintf("I %s the computer.", word),
			Chunks: []domain.Chunk{
				{Chinese: "我", Pinyin: "Wǒ", Transliteration: "I"},
				{Chinese: word, Pinyin: word, Transliteration: word},
				{Chinese: "电脑", Pinyin: "diànnǎo", Transliteration: "computer"},
				{Chinese: "。", Pinyin: ".", Transliteration: ""},
			},
		},
		{
			English: fmt.Sprintf("If you %s your heart to study, you will do better.", word),
			Chunks: []domain.Chunk{
				{Chinese: "如果你", Pinyin: "Rúguǒnǐ", Transliteration: "if you"},
				{Chinese: word, Pinyin: word, Transliteration: word},
				{Chinese: "心", Pinyin: "xīn", Transliteration: "heart"},
				{Chinese: "学习", Pinyin: "xuéxí", Transliteration: "study"},
				{Chinese: "，", Pinyin: ",", Transliteration: ""},
				{Chinese: "你", Pinyin: "nǐ", Transliteration: "you"},
				{Chinese: "会", Pinyin: "huì", Transliteration: "will"},
				{Chinese: "做得", Pinyin: "zuòde", Transliteration: "do"},
				{Chinese: "更好", Pinyin: "gènghǎo", Transliteration: "better"},
				{Chinese: "。", Pinyin: ".", Transliteration: ""},
			},
		},
	}
	buf, err := json.Marshal(sentences)
	if err != nil {
		return "", fmt.Errorf("mock: marshal: %w", err)
	}
	return string(buf), nil
}
