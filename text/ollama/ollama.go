package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"dreamlayer/helpers"
	"dreamlayer/http/request"
	"dreamlayer/text"
)

const (
	defaultUrl   = "http://127.0.0.1"
	defaultPort  = "11434"
	defaultModel = "dolphin-llama3:8b"
)

// Provider asks a local Ollama server for prompts over /api/chat.
type Provider struct {
	Url     string
	Port    string
	Model   string
	Timeout time.Duration
}

func New(url, port, model string) *Provider {
	if url == "" {
		url = defaultUrl
		if port == "" {
			port = defaultPort
		}
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{Url: url, Port: port, Model: model, Timeout: 60 * time.Second}
}

func (p *Provider) Name() string {
	return "ollama"
}

func (p *Provider) Suggest(ctx context.Context, kind text.Kind, history []text.Message) (string, error) {
	messages, err := text.Conversation(kind, history)
	if err != nil {
		return "", err
	}

	call := request.Request{
		Url:    helpers.MakeUrlWithPort(p.Url, p.Port) + "api/chat",
		Method: "POST",
		Payload: chatRequest{
			Model:     p.Model,
			KeepAlive: "0m",
			Messages:  messages,
			Options:   sampling{Temperature: 0.9, NumPredict: 120, RepeatPenalty: 1.2, PresencePenalty: 1.5},
		},
		Timeout: p.Timeout,
	}

	var response chatResponse
	if err := call.Call(ctx, &response); err != nil {
		return "", err
	}

	content := strings.TrimSpace(response.Message.Content)
	if content == "" {
		return "", errors.New("no content found")
	}
	return content, nil
}
