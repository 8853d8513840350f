package openrouter

import "dreamlayer/text"

type (
	completionRequest struct {
		Model       string         `json:"model"`
		Messages    []text.Message `json:"messages"`
		Temperature float64        `json:"temperature"`
		MaxTokens   int            `json:"max_tokens"`
	}

	completionResponse struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Choices []struct {
			FinishReason string       `json:"finish_reason"`
			Message      text.Message `json:"message"`
		} `json:"choices"`
	}
)
