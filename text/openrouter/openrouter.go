package openrouter

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
	defaultUrl   = "https://openrouter.ai/api/v1"
	defaultModel = "mistralai/mistral-7b-instruct"
)

// Provider asks an OpenAI compatible chat completions endpoint for prompts.
type Provider struct {
	Url     string
	ApiKey  string
	Model   string
	Timeout time.Duration
}

func New(url, apiKey, model string) *Provider {
	if url == "" {
		url = defaultUrl
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{Url: url, ApiKey: apiKey, Model: model, Timeout: 60 * time.Second}
}

func (p *Provider) Name() string {
	return "openrouter"
}

func (p *Provider) Suggest(ctx context.Context, kind text.Kind, history []text.Message) (string, error) {
	if p.ApiKey == "" {
		return "", errors.New("openrouter api key is not configured")
	}

	messages, err := text.Conversation(kind, history)
	if err != nil {
		return "", err
	}

	call := request.Request{
		Url:     helpers.AppendSlashUrl(p.Url) + "chat/completions",
		Method:  "POST",
		Headers: []request.Headers{{Key: "Authorization", Value: "Bearer " + p.ApiKey}},
		Payload: completionRequest{Model: p.Model, Messages: messages, Temperature: 0.9, MaxTokens: 120},
		Timeout: p.Timeout,
	}

	var response completionResponse
	if err := call.Call(ctx, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", errors.New("openrouter returned an empty response")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
