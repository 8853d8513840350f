package request

import (
	"fmt"
	"time"
)

type (
	Request struct {
		Url     string
		Method  string
		Headers []Headers
		Payload interface{}
		// Timeout of 0 leaves the transport default in place.
		Timeout time.Duration
	}

	Headers struct {
		Key   string
		Value string
	}

	// StatusError is returned for any non-2xx response. Body holds the raw response.
	StatusError struct {
		StatusCode int
		Body       []byte
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, truncate(string(e.Body), 256))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
