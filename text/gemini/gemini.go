package gemini

import (
	"context"
	"errors"
	"strings"

	"dreamlayer/text"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.5-flash-lite-preview-06-17"

// Provider asks Gemini for prompts. A client is opened per suggestion.
type Provider struct {
	ApiKey string
	Model  string
}

func New(apiKey, model string) *Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{ApiKey: apiKey, Model: model}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) Suggest(ctx context.Context, kind text.Kind, history []text.Message) (string, error) {
	if p.ApiKey == "" {
		return "", errors.New("gemini api key is not configured")
	}

	messages, err := text.Conversation(kind, history)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.ApiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	system, chatHistory, question := splitConversation(messages)
	model := client.GenerativeModel(p.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.SetTemperature(0.9)
	model.SetMaxOutputTokens(120)

	chat := model.StartChat()
	chat.History = chatHistory

	resp, err := chat.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

// splitConversation separates the system prompt and the final question from
// the history. Gemini calls the assistant role "model".
func splitConversation(messages []text.Message) (system string, history []*genai.Content, question string) {
	for i, msg := range messages {
		switch {
		case msg.Role == "system":
			system = msg.Content
		case i == len(messages)-1:
			question = msg.Content
		default:
			role := "user"
			if msg.Role == "assistant" {
				role = "model"
			}
			history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return system, history, question
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates found in response")
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok && strings.TrimSpace(string(txt)) != "" {
				return string(txt), nil
			}
		}
	}
	return "", errors.New("no text content found in response")
}
