package text

import (
	"context"
	"errors"

	"dreamlayer/logger"
)

type Suggestion struct {
	Prompt string `json:"prompt"`
	Type   Kind   `json:"type"`
	Source string `json:"source"`
}

// Suggester asks Provider for a prompt and falls back to Static when the
// provider fails or returns nothing usable.
type Suggester struct {
	Provider    Provider
	HistorySize int
}

func NewSuggester(provider Provider, historySize int) *Suggester {
	if provider == nil {
		provider = Static{}
	}
	return &Suggester{Provider: provider, HistorySize: historySize}
}

func (s *Suggester) Fetch(ctx context.Context, kind Kind) Suggestion {
	history := GetHistory(kind)

	prompt, err := s.Provider.Suggest(ctx, kind, history)
	if err == nil {
		prompt = CleanSuggestion(prompt)
		if prompt == "" {
			err = errors.New("empty suggestion")
		}
	}

	source := s.Provider.Name()
	if err != nil {
		logger.Warn("Prompt provider failed, using static samples", "provider", source, "kind", kind, "error", err)
		prompt, _ = Static{}.Suggest(ctx, kind, history)
		source = Static{}.Name()
	}

	AppendExchange(kind, UserPrompt(kind), prompt, s.HistorySize)

	return Suggestion{Prompt: prompt, Type: kind, Source: source}
}

// Reset drops the suggestion history of kind so earlier prompts may repeat.
func (s *Suggester) Reset(kind Kind) {
	if err := ClearHistory(kind); err != nil {
		logger.Warn("Failed to clear prompt history", "kind", kind, "error", err)
	}
}
