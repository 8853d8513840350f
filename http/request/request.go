package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dreamlayer/logger"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 16 << 20

func (r *Request) AddHeader(key string, value string) {
	r.Headers = append(r.Headers, Headers{Key: key, Value: value})
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r *Request) body() (io.Reader, bool, error) {
	if r.Payload == nil || r.method() == http.MethodGet {
		return http.NoBody, false, nil
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return bytes.NewReader(data), true, nil
}

// Call performs the request once and decodes a JSON reply into response.
// A *string response receives the raw body. A nil response discards it.
// Non-2xx replies are returned as *StatusError.
func (r *Request) Call(ctx context.Context, response any) error {
	body, isJSON, err := r.body()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, r.method(), r.Url, body)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, header := range r.Headers {
		req.Header.Set(header.Key, header.Value)
	}

	start := time.Now()
	client := &http.Client{Timeout: r.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug("HTTP call", "method", req.Method, "url", r.Url, "status", resp.StatusCode,
		"bytes", len(data), "took", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: data}
	}

	switch out := response.(type) {
	case nil:
		return nil
	case *string:
		*out = string(data)
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("failed to decode JSON response from %s: %w", r.Url, err)
	}
	return nil
}
