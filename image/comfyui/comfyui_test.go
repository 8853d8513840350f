package comfyui

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"dreamlayer/birdbase"
	"dreamlayer/image/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGraph = `{
  "1": {"class_type": "EmptyLatentImage", "inputs": {"width": 512, "height": 512, "batch_size": 1}},
  "2": {"class_type": "SaveImage", "inputs": {"filename_prefix": "t", "images": ["1", 0]}}
}`

type fakeEngine struct {
	mu          sync.Mutex
	prompts     []map[string]any
	interrupted int
	status      int
	body        string
}

func (f *fakeEngine) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.mu.Lock()
		f.prompts = append(f.prompts, payload)
		n := len(f.prompts)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		_, _ = io.WriteString(w, `{"prompt_id": "pid-`+strconv.Itoa(n)+`", "number": `+strconv.Itoa(n)+`, "node_errors": {}}`)
	})
	mux.HandleFunc("/interrupt", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.interrupted++
		f.mu.Unlock()
	})
	mux.HandleFunc("/object_info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
		  "ControlNetLoader": {"name": "ControlNetLoader", "input": {"required": {"control_net_name": [["openpose.safetensors", "canny.safetensors"]]}}},
		  "UpscaleModelLoader": {"name": "UpscaleModelLoader", "input": {"required": {"model_name": ["COMBO", {"options": ["4x-UltraSharp.pth", "RealESRGAN_x4plus.pth"]}]}}}
		}`)
	})
	return mux
}

func newTestClient(t *testing.T, engine *fakeEngine) *Client {
	server := httptest.NewServer(engine.handler(t))
	t.Cleanup(server.Close)
	return clientFor(t, server.URL)
}

func clientFor(t *testing.T, rawURL string) *Client {
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(Config{Host: "http://" + u.Hostname(), Port: port, Timeout: 5 * time.Second, RecordTTLHours: 1})
}

func parseGraph(t *testing.T) *workflow.Graph {
	g, err := workflow.Parse([]byte(testGraph))
	require.NoError(t, err)
	return g
}

func TestSubmitPostsPromptAndClientID(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestClient(t, engine)

	sub, err := c.Submit(context.Background(), parseGraph(t))
	require.NoError(t, err)
	assert.Equal(t, "pid-1", sub.PromptID)
	assert.Equal(t, 1, sub.Number)

	_, err = uuid.Parse(sub.ClientID)
	assert.NoError(t, err)

	require.Len(t, engine.prompts, 1)
	payload := engine.prompts[0]
	assert.Equal(t, sub.ClientID, payload["client_id"])
	prompt := payload["prompt"].(map[string]any)
	save := prompt["2"].(map[string]any)
	assert.Equal(t, "SaveImage", save["class_type"])
	assert.Equal(t, []any{"1", float64(0)}, save["inputs"].(map[string]any)["images"])
}

func TestSubmitUsesFreshClientIDs(t *testing.T) {
	c := newTestClient(t, &fakeEngine{})

	first, err := c.Submit(context.Background(), parseGraph(t))
	require.NoError(t, err)
	second, err := c.Submit(context.Background(), parseGraph(t))
	require.NoError(t, err)
	assert.NotEqual(t, first.ClientID, second.ClientID)
}

func TestSubmitEngineRejection(t *testing.T) {
	engine := &fakeEngine{
		status: http.StatusBadRequest,
		body:   `{"error": {"type": "prompt_outputs_failed_validation", "message": "Prompt outputs failed validation", "details": ""}, "node_errors": {"3": {"errors": []}}}`,
	}
	c := newTestClient(t, engine)

	_, err := c.Submit(context.Background(), parseGraph(t))

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
	assert.Equal(t, "Prompt outputs failed validation", subErr.Message)
	assert.Contains(t, subErr.NodeErrors, "3")
	assert.Contains(t, err.Error(), "Prompt outputs failed validation")
}

func TestSubmitPlainTextFailure(t *testing.T) {
	c := newTestClient(t, &fakeEngine{status: http.StatusInternalServerError, body: "boom\n"})

	_, err := c.Submit(context.Background(), parseGraph(t))

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "boom", subErr.Message)
}

func TestSubmitUnreachableEngine(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c := clientFor(t, server.URL)
	server.Close()

	_, err := c.Submit(context.Background(), parseGraph(t))

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Zero(t, subErr.StatusCode)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to reach engine"))
}

func TestModelOptions(t *testing.T) {
	c := newTestClient(t, &fakeEngine{})

	controlnets, err := c.ModelOptions("ControlNetLoader", "control_net_name")
	require.NoError(t, err)
	assert.Equal(t, []string{"canny.safetensors", "openpose.safetensors"}, controlnets)

	upscalers, err := c.ModelOptions("UpscaleModelLoader", "model_name")
	require.NoError(t, err)
	assert.Equal(t, []string{"4x-UltraSharp.pth", "RealESRGAN_x4plus.pth"}, upscalers)

	_, err = c.ModelOptions("NoSuchLoader", "x")
	assert.Error(t, err)
}

func TestInterrupt(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestClient(t, engine)

	require.NoError(t, c.Interrupt())
	assert.Equal(t, 1, engine.interrupted)
}

func TestRecordRoundTrip(t *testing.T) {
	require.NoError(t, birdbase.Init(filepath.Join(t.TempDir(), "db"), 0))
	t.Cleanup(func() { _ = birdbase.Close() })

	c := New(Config{Host: "127.0.0.1", Port: 8188, RecordTTLHours: 1})
	result := &workflow.Result{
		Graph:    parseGraph(t),
		Core:     workflow.CoreSettings{CkptName: "sdxl.safetensors", Seed: 7},
		Family:   workflow.FamilyLocal,
		Template: "local_core",
		Passes:   []string{"tiling"},
	}
	sub := &Submission{PromptID: "pid", Number: 3, ClientID: uuid.NewString()}

	require.NoError(t, c.SaveRecord(NewRecord(sub, result, time.Now())))

	rec, err := c.LookupRecord(sub.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "pid", rec.PromptID)
	assert.Equal(t, "local", rec.Family)
	assert.Equal(t, uint64(7), rec.Seed)
	assert.Equal(t, 2, rec.Nodes)
	assert.Equal(t, []string{"tiling"}, rec.Passes)

	_, err = c.LookupRecord("unknown")
	assert.ErrorIs(t, err, birdbase.ErrNotFound)
}
