package status

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dreamlayer/helpers"
	"dreamlayer/http/request"

	"github.com/richinsley/comfy2go/client"
)

type (
	DeviceInfo struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		VramTotal int64  `json:"vram_total"`
		VramFree  int64  `json:"vram_free"`
		Summary   string `json:"summary"`
	}

	EngineStatus struct {
		Url       string       `json:"url"`
		Reachable bool         `json:"reachable"`
		OS        string       `json:"os,omitempty"`
		Python    string       `json:"python_version,omitempty"`
		Devices   []DeviceInfo `json:"devices,omitempty"`
		Error     string       `json:"error,omitempty"`
		CheckedAt time.Time    `json:"checked_at"`
	}

	Health struct {
		Status string       `json:"status"`
		Uptime string       `json:"uptime"`
		Engine EngineStatus `json:"engine"`
	}
)

type Client struct {
	BaseURL  string
	Timeout  time.Duration
	CacheFor time.Duration

	started      time.Time
	mu           sync.Mutex
	cachedStatus *EngineStatus
}

// NewClient creates a status client for the engine at baseURL.
func NewClient(baseURL string, cacheFor time.Duration) *Client {
	return &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Timeout:  5 * time.Second,
		CacheFor: cacheFor,
		started:  time.Now(),
	}
}

// Engine returns the engine status, probing /system_stats at most once per
// CacheFor. An unreachable engine is reported in the status, not as an error.
func (c *Client) Engine(ctx context.Context) EngineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedStatus != nil && time.Since(c.cachedStatus.CheckedAt) < c.CacheFor {
		return *c.cachedStatus
	}

	status := c.probe(ctx)
	c.cachedStatus = &status
	return status
}

func (c *Client) probe(ctx context.Context) EngineStatus {
	status := EngineStatus{Url: c.BaseURL, CheckedAt: time.Now()}

	req := request.Request{Url: c.BaseURL + "/system_stats", Timeout: c.Timeout}
	var stats client.SystemStats
	if err := req.Call(ctx, &stats); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	status.OS = stats.System.OS
	status.Python = stats.System.PythonVersion
	for _, gpu := range stats.Devices {
		status.Devices = append(status.Devices, DeviceInfo{
			Name:      gpu.Name,
			Type:      gpu.Type,
			VramTotal: gpu.VRAM_Total,
			VramFree:  gpu.VRAM_Free,
			Summary:   formatDevice(gpu),
		})
	}
	return status
}

// Health combines service uptime with the engine status.
func (c *Client) Health(ctx context.Context) Health {
	engine := c.Engine(ctx)
	health := Health{
		Status: "ok",
		Uptime: helpers.Since(c.started),
		Engine: engine,
	}
	if !engine.Reachable {
		health.Status = "degraded"
	}
	return health
}

// formatDevice formats a single GPU's information
func formatDevice(gpu client.GPU) string {
	shortName := strings.Replace(gpu.Name, "NVIDIA GeForce ", "", 1)
	if gpu.VRAM_Total <= 0 {
		return shortName
	}
	const gib = 1 << 30
	return fmt.Sprintf("%s [VRAM free: %.1f/%.1f GiB]", shortName, float64(gpu.VRAM_Free)/gib, float64(gpu.VRAM_Total)/gib)
}
