package gemini

import (
	"context"
	"testing"

	"dreamlayer/text"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("a misty harbor at dawn")}}},
		},
	}
	got, err := firstText(resp)
	require.NoError(t, err)
	assert.Equal(t, "a misty harbor at dawn", got)

	_, err = firstText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = firstText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}

func TestSplitConversation(t *testing.T) {
	messages, err := text.Conversation(text.Positive, []text.Message{
		{Role: "user", Content: "Suggest a new image prompt."},
		{Role: "assistant", Content: "a red bicycle"},
	})
	require.NoError(t, err)

	system, history, question := splitConversation(messages)
	assert.Contains(t, system, "Stable Diffusion")
	assert.Equal(t, text.UserPrompt(text.Positive), question)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("a red bicycle"), history[1].Parts[0])
}

func TestSuggestWithoutKey(t *testing.T) {
	p := New("", "")
	assert.Equal(t, defaultModel, p.Model)

	_, err := p.Suggest(context.Background(), text.Positive, nil)
	assert.ErrorContains(t, err, "api key")
}
