package text

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

//go:embed prompts/*.md
var promptFiles embed.FS

var labelPrefix = regexp.MustCompile(`(?i)^(negative\s+)?prompt\s*:\s*`)

// GetPrompt returns one of the embedded instruction files.
func GetPrompt(promptName string) (string, error) {
	clean := path.Base(promptName)
	if clean != promptName || clean == "." || clean == ".." {
		return "", errors.New("invalid prompt name")
	}

	file, err := promptFiles.ReadFile("prompts/" + clean)
	if err != nil {
		return "", fmt.Errorf("unknown prompt %s: %w", clean, err)
	}

	return string(file), nil
}

// SystemPrompt is the instruction given to a language model for kind.
func SystemPrompt(kind Kind) (string, error) {
	return GetPrompt(string(kind) + ".md")
}

// UserPrompt is the per-request message asking for a new suggestion.
func UserPrompt(kind Kind) string {
	if kind == Negative {
		return "Suggest a new negative prompt."
	}
	return "Suggest a new image prompt."
}

// CleanSuggestion strips the wrapping a chat model tends to add around a
// prompt and collapses whitespace.
func CleanSuggestion(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.Index(message, "\n\n"); i > 0 {
		message = message[:i]
	}
	message = labelPrefix.ReplaceAllString(message, "")
	message = strings.Trim(message, "\"'` ")
	message = strings.ReplaceAll(message, "_", " ")

	return strings.Join(strings.Fields(message), " ")
}

// Conversation is the chat sent to a model for one suggestion: the system
// prompt, the stored history and a request for a new prompt.
func Conversation(kind Kind, history []Message) ([]Message, error) {
	system, err := SystemPrompt(kind)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, history...)
	return append(messages, Message{Role: "user", Content: UserPrompt(kind)}), nil
}
