package ollama

import "dreamlayer/text"

type (
	chatRequest struct {
		Model     string         `json:"model"`
		Stream    bool           `json:"stream"`
		KeepAlive string         `json:"keep_alive"`
		Messages  []text.Message `json:"messages"`
		Options   sampling       `json:"options"`
	}

	// sampling keeps suggestions short and discourages repeating the history.
	sampling struct {
		Temperature     float64 `json:"temperature"`
		NumPredict      int     `json:"num_predict"`
		RepeatPenalty   float64 `json:"repeat_penalty"`
		PresencePenalty float64 `json:"presence_penalty"`
	}

	chatResponse struct {
		Model      string       `json:"model"`
		Message    text.Message `json:"message"`
		Done       bool         `json:"done"`
		DoneReason string       `json:"done_reason"`
	}
)
