package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCustomWritesCoreSettings(t *testing.T) {
	g, err := MergeCustom(json.RawMessage(tinyGraph), testCore(), nil)
	require.NoError(t, err)

	assert.Equal(t, "sdxl.safetensors", g.Nodes["1"].Inputs["ckpt_name"])
	assert.Equal(t, "a red bicycle", g.Nodes["2"].Inputs["text"])
	assert.Equal(t, "blurry", g.Nodes["3"].Inputs["text"])
	assert.Equal(t, 768, g.Nodes["4"].Inputs["width"])
	assert.Equal(t, 512, g.Nodes["4"].Inputs["height"])
	assert.Equal(t, 2, g.Nodes["4"].Inputs["batch_size"])

	sampler := g.Nodes["5"].Inputs
	assert.Equal(t, uint64(1234), sampler["seed"])
	assert.Equal(t, 30, sampler["steps"])
	assert.Equal(t, 6.5, sampler["cfg"])
	assert.Equal(t, "dpmpp_2m", sampler["sampler_name"])
	assert.Equal(t, "karras", sampler["scheduler"])
	assert.Equal(t, 1.0, sampler["denoise"])
}

func TestMergeCustomAcceptsWrappedPrompt(t *testing.T) {
	wrapped := `{"prompt": ` + tinyGraph + `, "client_id": "old"}`
	g, err := MergeCustom(json.RawMessage(wrapped), testCore(), nil)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 7)
}

func TestMergeCustomAdvancedSamplerUsesNoiseSeed(t *testing.T) {
	g := parseTiny(t)
	g.Nodes["5"].ClassType = "KSamplerAdvanced"
	delete(g.Nodes["5"].Inputs, "seed")
	delete(g.Nodes["5"].Inputs, "denoise")
	raw, err := json.Marshal(g)
	require.NoError(t, err)

	merged, err := MergeCustom(raw, testCore(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), merged.Nodes["5"].Inputs["noise_seed"])
	assert.NotContains(t, merged.Nodes["5"].Inputs, "seed")
	assert.NotContains(t, merged.Nodes["5"].Inputs, "denoise")
}

func TestMergeCustomTracesThroughControlNet(t *testing.T) {
	tmpl, err := NewLoader("").Load(FamilyLocal, true, true)
	require.NoError(t, err)
	raw, err := json.Marshal(tmpl.Graph)
	require.NoError(t, err)

	g, err := MergeCustom(raw, testCore(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a red bicycle", g.Nodes["6"].Inputs["text"])
	assert.Equal(t, "blurry", g.Nodes["7"].Inputs["text"])
	assert.Equal(t, "sdxl.safetensors", g.Nodes["4"].Inputs["ckpt_name"])
}

func TestMergeCustomRejects(t *testing.T) {
	tests := map[string]string{
		"not an object":     `[1, 2]`,
		"dangling":          `{"1": {"class_type": "SaveImage", "inputs": {"images": ["9", 0]}}}`,
		"no sampler":        `{"1": {"class_type": "LoadImage", "inputs": {"image": "a.png"}}, "2": {"class_type": "SaveImage", "inputs": {"images": ["1", 0]}}}`,
		"missing class":     `{"1": {"inputs": {}}}`,
		"remote needs keys": `{"1": {"class_type": "OpenAIDalle3", "inputs": {"prompt": ""}}, "2": {"class_type": "SaveImage", "inputs": {"images": ["1", 0]}}}`,
	}

	for name, body := range tests {
		body := body
		t.Run(name, func(t *testing.T) {
			_, err := MergeCustom(json.RawMessage(body), testCore(), Credentials{})
			var customErr *CustomWorkflowError
			assert.ErrorAs(t, err, &customErr)
		})
	}
}

func TestMergeCustomRemoteOnly(t *testing.T) {
	body := `{"1": {"class_type": "IdeogramV2", "inputs": {"prompt": "", "negative_prompt": "", "seed": 0}},
	          "2": {"class_type": "SaveImage", "inputs": {"images": ["1", 0]}}}`

	g, err := MergeCustom(json.RawMessage(body), testCore(), Credentials{"ideogram": "k"})
	require.NoError(t, err)
	assert.Equal(t, "a red bicycle", g.Nodes["1"].Inputs["prompt"])
	assert.Equal(t, "blurry", g.Nodes["1"].Inputs["negative_prompt"])
	assert.Equal(t, uint64(1234), g.Nodes["1"].Inputs["seed"])
	assert.Equal(t, "k", g.Nodes["1"].Inputs["api_key"])
	assert.NotContains(t, g.Nodes["1"].Inputs, "width")
}

func TestOverrideFallbackMatchesTemplate(t *testing.T) {
	loader := NewLoader("")
	core := testCore()

	tmpl, err := loader.Load(FamilyLocal, false, false)
	require.NoError(t, err)
	plain, usedCustom, err := Override(tmpl, core, nil, nil)
	require.NoError(t, err)
	assert.False(t, usedCustom)

	tmpl, err = loader.Load(FamilyLocal, false, false)
	require.NoError(t, err)
	broken := json.RawMessage(`{"1": {"class_type": "KSampler", "inputs": {"model": ["404", 0]}}}`)
	fallback, usedCustom, err := Override(tmpl, core, broken, nil)
	require.NoError(t, err)
	assert.False(t, usedCustom)

	plainJSON, err := json.Marshal(plain)
	require.NoError(t, err)
	fallbackJSON, err := json.Marshal(fallback)
	require.NoError(t, err)
	assert.JSONEq(t, string(plainJSON), string(fallbackJSON))
}

func TestOverrideUsesValidCustom(t *testing.T) {
	tmpl, err := NewLoader("").Load(FamilyLocal, false, false)
	require.NoError(t, err)

	g, usedCustom, err := Override(tmpl, testCore(), json.RawMessage(tinyGraph), nil)
	require.NoError(t, err)
	assert.True(t, usedCustom)
	assert.Equal(t, "x", g.Nodes["7"].Inputs["filename_prefix"])
}

func TestOverrideIgnoresEmptyCustom(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", "  "} {
		assert.False(t, hasCustom(json.RawMessage(raw)), "%q", raw)
	}
}
