package comfyui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dreamlayer/birdbase"
	"dreamlayer/helpers"
	"dreamlayer/http/request"
	"dreamlayer/image/workflow"
	"dreamlayer/logger"

	"github.com/google/uuid"
	"github.com/richinsley/comfy2go/client"
	"github.com/richinsley/comfy2go/graphapi"
)

// Client talks to one engine. Submissions go through http/request so that
// every call is a single POST with no retry; metadata, uploads and
// interrupts go through comfy2go.
type Client struct {
	config Config
	engine *client.ComfyClient
}

func New(config Config) *Client {
	host := strings.TrimSuffix(config.Host, "/")
	host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
	config.Host = host

	return &Client{
		config: config,
		engine: client.NewComfyClient(host, config.Port, nil),
	}
}

// Url is the engine base address, e.g. http://127.0.0.1:8188.
func (c *Client) Url() string {
	return fmt.Sprintf("http://%s:%d", c.config.Host, c.config.Port)
}

// Submit queues g under a fresh client id.
func (c *Client) Submit(ctx context.Context, g *workflow.Graph) (*Submission, error) {
	clientID := uuid.NewString()
	log := logger.With("client_id", clientID)
	start := time.Now()

	req := request.Request{
		Url:     c.Url() + "/prompt",
		Method:  "POST",
		Payload: promptPayload{Prompt: promptNodes(g), ClientID: clientID},
		Timeout: c.config.Timeout,
	}

	var resp promptResponse
	if err := req.Call(ctx, &resp); err != nil {
		subErr := toSubmissionError(err)
		log.Error("Engine submission failed", "status", subErr.StatusCode, "error", subErr)
		return nil, subErr
	}

	if resp.PromptID == "" {
		return nil, &SubmissionError{StatusCode: 200, Message: "engine response carried no prompt_id", NodeErrors: resp.NodeErrors}
	}

	log.Info("Queued prompt", "prompt_id", resp.PromptID, "number", resp.Number,
		"nodes", len(g.Nodes), "took", helpers.HumanDuration(time.Since(start)))

	return &Submission{PromptID: resp.PromptID, Number: resp.Number, ClientID: clientID}, nil
}

func promptNodes(g *workflow.Graph) map[string]graphapi.PromptNode {
	nodes := make(map[string]graphapi.PromptNode, len(g.Nodes))
	for id, node := range g.Nodes {
		nodes[id] = graphapi.PromptNode{ClassType: node.ClassType, Inputs: node.Inputs}
	}
	return nodes
}

func toSubmissionError(err error) *SubmissionError {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		return &SubmissionError{Err: err}
	}

	subErr := &SubmissionError{StatusCode: statusErr.StatusCode, Err: err}
	var body promptErrorResponse
	if json.Unmarshal(statusErr.Body, &body) == nil && body.Error.Message != "" {
		subErr.Message = body.Error.Message
		if body.Error.Details != "" {
			subErr.Message += ": " + body.Error.Details
		}
		subErr.NodeErrors = body.NodeErrors
		return subErr
	}

	subErr.Message = strings.TrimSpace(string(statusErr.Body))
	if subErr.Message == "" {
		subErr.Message = "empty response"
	}
	return subErr
}

func recordKey(clientID string) string {
	return "submission:" + clientID
}

// SaveRecord keeps rec in the local store. Without an open store it is a no-op.
func (c *Client) SaveRecord(rec Record) error {
	if !birdbase.Ready() {
		return nil
	}
	return birdbase.PutJSON(recordKey(rec.ClientID), rec, c.config.RecordTTLHours)
}

// LookupRecord returns birdbase.ErrNotFound for unknown or expired ids.
func (c *Client) LookupRecord(clientID string) (*Record, error) {
	if !birdbase.Ready() {
		return nil, birdbase.ErrNotFound
	}
	var rec Record
	if err := birdbase.GetJSON(recordKey(clientID), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// NewRecord builds the stored trace of a successful transform and submission.
func NewRecord(sub *Submission, result *workflow.Result, submittedAt time.Time) Record {
	return Record{
		ClientID:    sub.ClientID,
		PromptID:    sub.PromptID,
		Number:      sub.Number,
		Model:       result.Core.CkptName,
		Family:      string(result.Family),
		Template:    result.Template,
		Custom:      result.Custom,
		Passes:      result.Passes,
		Seed:        result.Core.Seed,
		Nodes:       len(result.Graph.Nodes),
		SubmittedAt: submittedAt.UTC(),
		Latency:     helpers.HumanDuration(time.Since(submittedAt)),
	}
}

func uploadKey(filename string) string {
	return "upload:" + filename
}

// SaveUpload records a stored ControlNet input image.
func (c *Client) SaveUpload(u Upload) error {
	if !birdbase.Ready() {
		return nil
	}
	return birdbase.PutJSON(uploadKey(u.Filename), u, c.config.RecordTTLHours)
}

func (c *Client) LookupUpload(filename string) (*Upload, error) {
	if !birdbase.Ready() {
		return nil, birdbase.ErrNotFound
	}
	var u Upload
	if err := birdbase.GetJSON(uploadKey(filename), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
