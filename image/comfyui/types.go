package comfyui

import (
	"fmt"
	"time"

	"github.com/richinsley/comfy2go/graphapi"
)

type (
	Config struct {
		Host string
		Port int
		// Timeout bounds the /prompt round trip. 0 keeps the transport default.
		Timeout time.Duration
		// RecordTTLHours is how long submission records are kept, 0 keeps them forever.
		RecordTTLHours int
	}

	// promptPayload is the body of POST /prompt.
	promptPayload struct {
		Prompt   map[string]graphapi.PromptNode `json:"prompt"`
		ClientID string                         `json:"client_id"`
	}

	promptResponse struct {
		PromptID   string         `json:"prompt_id"`
		Number     int            `json:"number"`
		NodeErrors map[string]any `json:"node_errors"`
	}

	promptErrorResponse struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
		NodeErrors map[string]any `json:"node_errors"`
	}

	// Submission is what the engine handed back for one queued graph.
	Submission struct {
		PromptID string `json:"prompt_id"`
		Number   int    `json:"number"`
		ClientID string `json:"client_id"`
	}

	// Record is the stored trace of a submission, looked up by client id.
	Record struct {
		ClientID    string    `json:"client_id"`
		PromptID    string    `json:"prompt_id"`
		Number      int       `json:"number"`
		Model       string    `json:"model"`
		Family      string    `json:"family"`
		Template    string    `json:"template"`
		Custom      bool      `json:"custom"`
		Passes      []string  `json:"passes"`
		Seed        uint64    `json:"seed"`
		Nodes       int       `json:"nodes"`
		SubmittedAt time.Time `json:"submitted_at"`
		Latency     string    `json:"latency"`
	}

	// Upload records a ControlNet input image stored for later requests.
	Upload struct {
		Filename   string    `json:"filename"`
		Size       int64     `json:"size"`
		Forwarded  bool      `json:"forwarded"`
		EngineName string    `json:"engine_name,omitempty"`
		UploadedAt time.Time `json:"uploaded_at"`
	}

	// SubmissionError is a failed /prompt round trip. StatusCode is 0 when
	// the engine could not be reached at all.
	SubmissionError struct {
		StatusCode int
		Message    string
		NodeErrors map[string]any
		Err        error
	}
)

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to reach engine: %v", e.Err)
	}
	if len(e.NodeErrors) > 0 {
		return fmt.Sprintf("engine rejected prompt (status %d): %s (%d node errors)", e.StatusCode, e.Message, len(e.NodeErrors))
	}
	return fmt.Sprintf("engine rejected prompt (status %d): %s", e.StatusCode, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
