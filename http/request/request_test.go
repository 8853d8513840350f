package request

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallPostsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["msg"])

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	req := Request{
		Url:     server.URL,
		Method:  http.MethodPost,
		Payload: map[string]string{"msg": "hello"},
	}
	req.AddHeader("Authorization", "Bearer k")

	var out struct {
		Ok bool `json:"ok"`
	}
	require.NoError(t, req.Call(context.Background(), &out))
	assert.True(t, out.Ok)
}

func TestCallStringResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("plain"))
	}))
	defer server.Close()

	req := Request{Url: server.URL}
	var out string
	require.NoError(t, req.Call(context.Background(), &out))
	assert.Equal(t, "plain", out)
}

func TestCallNon2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad graph"}}`))
	}))
	defer server.Close()

	req := Request{Url: server.URL, Method: http.MethodPost, Payload: map[string]int{}}
	err := req.Call(context.Background(), nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "bad graph")
}

func TestCallTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	req := Request{Url: url}
	err := req.Call(context.Background(), nil)
	assert.ErrorContains(t, err, "failed to execute request")
}

func TestCallBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	var out map[string]any
	req := Request{Url: server.URL}
	assert.ErrorContains(t, req.Call(context.Background(), &out), "failed to decode JSON response")
}

func TestCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	req := Request{Url: server.URL, Timeout: 50 * time.Millisecond}
	assert.ErrorContains(t, req.Call(context.Background(), nil), "failed to execute request")
}
