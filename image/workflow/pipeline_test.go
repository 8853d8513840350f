package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransformer(creds Credentials) *Transformer {
	return &Transformer{
		Normalizer:  Normalizer{DefaultCheckpoint: "juggernautXL_v8Rundiffusion.safetensors", RandomSeed: fixedSeed(4242)},
		Router:      NewRouter(nil),
		Loader:      NewLoader(""),
		Credentials: creds,
	}
}

func TestTransformRedBicycle(t *testing.T) {
	req := decodeTestRequest(t, `{
		"prompt": "a red bicycle",
		"negative_prompt": "blurry",
		"width": 1024,
		"height": 768,
		"steps": 25,
		"cfg_scale": 7.5,
		"sampler_name": "Euler a",
		"seed": -1
	}`)

	result, err := newTestTransformer(nil).Transform(req)
	require.NoError(t, err)

	assert.Equal(t, FamilyLocal, result.Family)
	assert.Equal(t, "local_core", result.Template)
	assert.False(t, result.Custom)
	assert.Empty(t, result.Passes)

	g := result.Graph
	assert.Equal(t, "a red bicycle", g.Nodes["6"].Inputs["text"])
	assert.Equal(t, "blurry", g.Nodes["7"].Inputs["text"])
	assert.Equal(t, 1024, g.Nodes["5"].Inputs["width"])
	assert.Equal(t, 768, g.Nodes["5"].Inputs["height"])
	assert.Equal(t, "euler_ancestral", g.Nodes["3"].Inputs["sampler_name"])
	assert.Equal(t, uint64(4242), g.Nodes["3"].Inputs["seed"])
	assert.Equal(t, "juggernautXL_v8Rundiffusion.safetensors", g.Nodes["4"].Inputs["ckpt_name"])

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"latent_image":["5",0]`)
}

func TestTransformRemoteFamilies(t *testing.T) {
	creds := Credentials{"openai": "sk-openai", "bfl": "bfl-key", "ideogram": "ideo-key"}

	tests := []struct {
		model    string
		family   Family
		class    string
		wantKey  string
		template string
	}{
		{"dall-e-3", FamilyDalle, "OpenAIDalle3", "sk-openai", "dalle_core"},
		{"flux-pro", FamilyBfl, "FluxProImageNode", "bfl-key", "bfl_core"},
		{"ideogram-v2", FamilyIdeogram, "IdeogramV2", "ideo-key", "ideogram_core"},
	}

	for _, tt := range tests {
		test := tt
		t.Run(test.model, func(t *testing.T) {
			req := decodeTestRequest(t, `{"prompt": "a red bicycle", "model": "`+test.model+`", "seed": 9}`)
			result, err := newTestTransformer(creds).Transform(req)
			require.NoError(t, err)

			assert.Equal(t, test.family, result.Family)
			assert.Equal(t, test.template, result.Template)
			node := result.Graph.Nodes["1"]
			assert.Equal(t, test.class, node.ClassType)
			assert.Equal(t, test.wantKey, node.Inputs["api_key"])
			assert.Equal(t, "a red bicycle", node.Inputs["prompt"])
			assert.Equal(t, uint64(9), node.Inputs["seed"])
		})
	}
}

func TestTransformMissingCredential(t *testing.T) {
	req := decodeTestRequest(t, `{"prompt": "p", "model": "dall-e-3"}`)
	_, err := newTestTransformer(Credentials{}).Transform(req)

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "openai", missing.Credential)
}

func TestTransformNoTemplateForRemoteLora(t *testing.T) {
	req := decodeTestRequest(t, `{"prompt": "p", "model": "flux-pro", "lora": {"enabled": true, "lora_name": "x"}}`)
	_, err := newTestTransformer(Credentials{"bfl": "k"}).Transform(req)

	var notFound *TemplateNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTransformSelectsFeatureTemplate(t *testing.T) {
	req := decodeTestRequest(t, `{
		"prompt": "p",
		"lora": {"enabled": true, "lora_name": "detail.safetensors"},
		"controlnet": {"enabled": true, "units": [{"enabled": true, "model": "canny", "input_image": "e.png"}]},
		"hires_fix": true
	}`)

	result, err := newTestTransformer(nil).Transform(req)
	require.NoError(t, err)
	assert.Equal(t, "local_controlnet_lora", result.Template)
	assert.Equal(t, []string{"lora", "controlnet", "hires_fix"}, result.Passes)
}

func TestTransformCustomWorkflowFallbackIsEquivalent(t *testing.T) {
	tests := []struct {
		name   string
		custom string
	}{
		{"dangling reference", `{"1": {"class_type": "SaveImage", "inputs": {"images": ["2", 0]}}}`},
		{"array", `[1, 2]`},
		{"string", `"not a graph"`},
		{"number", `42`},
	}

	transformer := newTestTransformer(nil)
	plain, err := transformer.Transform(decodeTestRequest(t, `{"prompt": "a red bicycle", "seed": 5, "tiling": true}`))
	require.NoError(t, err)
	plainJSON, err := json.Marshal(plain.Graph)
	require.NoError(t, err)

	for _, tt := range tests {
		test := tt
		t.Run(test.name, func(t *testing.T) {
			req := decodeTestRequest(t, `{"prompt": "a red bicycle", "seed": 5, "tiling": true, "custom_workflow": `+test.custom+`}`)
			result, err := transformer.Transform(req)
			require.NoError(t, err)
			assert.False(t, result.Custom)
			assert.Equal(t, plain.Template, result.Template)

			resultJSON, err := json.Marshal(result.Graph)
			require.NoError(t, err)
			assert.JSONEq(t, string(plainJSON), string(resultJSON))
		})
	}
}

func TestTransformFeatureFailureAborts(t *testing.T) {
	// A custom graph without a VAE decode leaves tiling nothing to rewrite.
	req := decodeTestRequest(t, `{"prompt": "p", "tiling": true, "custom_workflow": {
		"1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "a"}},
		"2": {"class_type": "CLIPTextEncode", "inputs": {"text": "", "clip": ["1", 1]}},
		"3": {"class_type": "CLIPTextEncode", "inputs": {"text": "", "clip": ["1", 1]}},
		"4": {"class_type": "EmptyLatentImage", "inputs": {"width": 512, "height": 512, "batch_size": 1}},
		"5": {"class_type": "KSampler", "inputs": {"model": ["1", 0], "positive": ["2", 0], "negative": ["3", 0], "latent_image": ["4", 0]}},
		"6": {"class_type": "MyLatentPreview", "inputs": {"samples": ["5", 0]}},
		"7": {"class_type": "SaveImage", "inputs": {"images": ["6", 0]}}
	}}`)

	_, err := newTestTransformer(nil).Transform(req)

	var injectErr *FeatureInjectionError
	require.ErrorAs(t, err, &injectErr)
	assert.Equal(t, "tiling", injectErr.Pass)
}
