package domain

// VocabularyItem is one word or phrase to generate example sentences for.
// ID is the explicit key when one was given, otherwise the text itself.
type VocabularyItem struct {
	ID   string
	Text string
}

// GenerationRequest pairs an item with the prompt and model parameters used
// for one dispatch. It is never persisted.
type GenerationRequest struct {
	Item        VocabularyItem
	Prompt      string
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}
