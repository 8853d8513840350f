package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dreamlayer/text"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestSendsHistory(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{Message: text.Message{Role: "assistant", Content: "  a misty harbor at dawn \n"}})
	}))
	defer server.Close()

	p := New(server.URL, "", "llama3")
	history := []text.Message{{Role: "user", Content: "Suggest a new image prompt."}, {Role: "assistant", Content: "a red bicycle"}}

	suggestion, err := p.Suggest(context.Background(), text.Positive, history)
	require.NoError(t, err)
	assert.Equal(t, "a misty harbor at dawn", suggestion)

	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 120, got.Options.NumPredict)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "a red bicycle", got.Messages[2].Content)
	assert.Equal(t, "user", got.Messages[3].Role)
}

func TestSuggestEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": ""}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "", "").Suggest(context.Background(), text.Negative, nil)
	assert.EqualError(t, err, "no content found")
}

func TestNewDefaults(t *testing.T) {
	p := New("", "", "")
	assert.Equal(t, "http://127.0.0.1", p.Url)
	assert.Equal(t, "11434", p.Port)
	assert.Equal(t, defaultModel, p.Model)
}
