package workflow

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strings"
)

const (
	minDimension = 64
	maxDimension = 2048
	maxSeed      = 1<<32 - 1
)

// CoreSettings are the normalized values every base template consumes.
type CoreSettings struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	BatchSize      int     `json:"batch_size"`
	Steps          int     `json:"steps"`
	CfgScale       float64 `json:"cfg_scale"`
	SamplerName    string  `json:"sampler_name"`
	Scheduler      string  `json:"scheduler"`
	Seed           uint64  `json:"seed"`
	CkptName       string  `json:"ckpt_name"`
	Denoise        float64 `json:"denoise"`
}

// samplerAliases maps display names and engine names to engine sampler names.
var samplerAliases = map[string]string{
	"euler":               "euler",
	"Euler":               "euler",
	"euler_ancestral":     "euler_ancestral",
	"Euler a":             "euler_ancestral",
	"heun":                "heun",
	"Heun":                "heun",
	"heunpp2":             "heunpp2",
	"dpm_2":               "dpm_2",
	"DPM2":                "dpm_2",
	"dpm_2_ancestral":     "dpm_2_ancestral",
	"DPM2 a":              "dpm_2_ancestral",
	"lms":                 "lms",
	"LMS":                 "lms",
	"dpm_fast":            "dpm_fast",
	"DPM fast":            "dpm_fast",
	"dpm_adaptive":        "dpm_adaptive",
	"DPM adaptive":        "dpm_adaptive",
	"dpmpp_2s_ancestral":  "dpmpp_2s_ancestral",
	"DPM++ 2S a":          "dpmpp_2s_ancestral",
	"dpmpp_sde":           "dpmpp_sde",
	"DPM++ SDE":           "dpmpp_sde",
	"dpmpp_sde_gpu":       "dpmpp_sde_gpu",
	"dpmpp_2m":            "dpmpp_2m",
	"DPM++ 2M":            "dpmpp_2m",
	"dpmpp_2m_sde":        "dpmpp_2m_sde",
	"DPM++ 2M SDE":        "dpmpp_2m_sde",
	"dpmpp_2m_sde_gpu":    "dpmpp_2m_sde_gpu",
	"dpmpp_3m_sde":        "dpmpp_3m_sde",
	"DPM++ 3M SDE":        "dpmpp_3m_sde",
	"dpmpp_3m_sde_gpu":    "dpmpp_3m_sde_gpu",
	"ddim":                "ddim",
	"DDIM":                "ddim",
	"ddpm":                "ddpm",
	"DDPM":                "ddpm",
	"uni_pc":              "uni_pc",
	"UniPC":               "uni_pc",
	"uni_pc_bh2":          "uni_pc_bh2",
	"lcm":                 "lcm",
	"LCM":                 "lcm",
	"ipndm":               "ipndm",
	"deis":                "deis",
	"DEIS":                "deis",
	"dpmpp_2m_karras":     "dpmpp_2m",
	"DPM++ 2M Karras":     "dpmpp_2m",
	"DPM++ SDE Karras":    "dpmpp_sde",
	"DPM++ 2M SDE Karras": "dpmpp_2m_sde",
}

// SamplerName resolves a sampler alias. Unknown names fall back to euler.
func SamplerName(name string) string {
	if mapped, ok := samplerAliases[strings.TrimSpace(name)]; ok {
		return mapped
	}
	return "euler"
}

// Normalizer clamps request values into the ranges the templates accept.
type Normalizer struct {
	DefaultCheckpoint string
	// RandomSeed overrides the crypto/rand seed source in tests.
	RandomSeed func() (uint64, error)
}

func (n Normalizer) Normalize(req *GenerationRequest) (CoreSettings, error) {
	seed, err := n.resolveSeed(req.Seed)
	if err != nil {
		return CoreSettings{}, err
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = n.DefaultCheckpoint
	}

	scheduler := strings.TrimSpace(req.Scheduler)
	if scheduler == "" {
		scheduler = "normal"
	}

	return CoreSettings{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          clampInt(req.Width.Int(512), minDimension, maxDimension),
		Height:         clampInt(req.Height.Int(512), minDimension, maxDimension),
		BatchSize:      clampInt(req.BatchSize.Int(1), 1, 8),
		Steps:          clampInt(req.Steps.Int(20), 1, 150),
		CfgScale:       clampFloat(req.CfgScale.Float(7.0), 1.0, 20.0),
		SamplerName:    SamplerName(req.SamplerName),
		Scheduler:      scheduler,
		Seed:           seed,
		CkptName:       model,
		Denoise:        1.0,
	}, nil
}

// resolveSeed keeps any non-negative seed and draws a fresh one otherwise.
func (n Normalizer) resolveSeed(raw Number) (uint64, error) {
	if seed, ok := raw.Uint64(); ok {
		return seed, nil
	}
	if n.RandomSeed != nil {
		return n.RandomSeed()
	}
	return RandomSeed()
}

// RandomSeed draws uniformly from [0, 2^32-1] using crypto/rand.
func RandomSeed() (uint64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(maxSeed+1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random seed: %w", err)
	}
	return seed.Uint64(), nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
