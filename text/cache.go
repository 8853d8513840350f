package text

import (
	"errors"

	"dreamlayer/birdbase"
	"dreamlayer/logger"
)

// historyHours is how long an idle suggestion history is kept.
const historyHours = 24

func historyKey(kind Kind) string {
	return "prompt_history:" + string(kind)
}

// GetHistory returns the stored exchanges for kind, oldest first.
func GetHistory(kind Kind) []Message {
	if !birdbase.Ready() {
		return nil
	}

	var messages []Message
	if err := birdbase.GetJSON(historyKey(kind), &messages); err != nil {
		if !errors.Is(err, birdbase.ErrNotFound) {
			logger.Error("Failed to read prompt history", "kind", kind, "error", err)
		}
		return nil
	}
	return messages
}

// AppendExchange records one user/assistant pair, keeping the newest limit
// messages. Nothing is kept without an open store or with limit <= 0.
func AppendExchange(kind Kind, question, answer string, limit int) {
	if !birdbase.Ready() || limit <= 0 {
		return
	}

	history := append(GetHistory(kind),
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: answer},
	)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	if err := birdbase.PutJSON(historyKey(kind), history, historyHours); err != nil {
		logger.Error("Failed to store prompt history", "kind", kind, "error", err)
	}
}

// ClearHistory forgets every exchange for kind.
func ClearHistory(kind Kind) error {
	if !birdbase.Ready() {
		return nil
	}
	return birdbase.Delete(historyKey(kind))
}
