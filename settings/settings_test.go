package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
[paths]
checkpoints = "models/checkpoints"
output = "output"
input = "input"

[[models.rules]]
name = "dall-e-3"
family = "dalle"

[[models.rules]]
contains = "ideogram"
family = "ideogram"
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, minimalConfig)

	config, err := LoadConfigFrom(configPath, filepath.Join(dir, "settings"))
	require.NoError(t, err)

	assert.Equal(t, 8188, config.ComfyUi.Port)
	assert.Equal(t, "juggernautXL_v8Rundiffusion.safetensors", config.Models.DefaultCheckpoint)
	assert.Equal(t, []string{"http://localhost:*", "http://127.0.0.1:*"}, config.Server.AllowedOrigins)
	assert.Len(t, config.Models.Rules, 2)
	assert.Equal(t, "static", config.Prompts.Provider)
}

func TestLoadConfigServiceOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, minimalConfig)
	writeFile(t, filepath.Join(dir, "settings", "comfyui.toml"), "host = \"gpu-box\"\nport = 9000\n")

	config, err := LoadConfigFrom(configPath, filepath.Join(dir, "settings"))
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:9000", config.ComfyUi.Url())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, minimalConfig)

	t.Setenv("BFL_API_KEY", "bfl-secret")
	t.Setenv("DREAMLAYER_PORT", "6000")

	config, err := LoadConfigFrom(configPath, filepath.Join(dir, "settings"))
	require.NoError(t, err)

	assert.Equal(t, "bfl-secret", config.ApiKeys.Credentials()["bfl"])
	assert.Equal(t, 6000, config.Server.Port)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing-paths", "[models]\ndefaultCheckpoint = \"x\"\n"},
		{"bad-family", minimalConfig + "\n[[models.rules]]\nname = \"x\"\nfamily = \"midjourney\"\n"},
		{"rule-without-match", minimalConfig + "\n[[models.rules]]\nfamily = \"bfl\"\n"},
		{"bad-log-format", minimalConfig + "\n[logging]\nlevel = \"info\"\nformat = \"xml\"\n"},
	}

	for _, tt := range tests {
		test := tt
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.toml")
			writeFile(t, configPath, test.body)

			_, err := LoadConfigFrom(configPath, filepath.Join(dir, "settings"))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.toml"), "settings")
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadConfigBadPortEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	writeFile(t, configPath, minimalConfig)
	t.Setenv("COMFYUI_PORT", "eighty")

	_, err := LoadConfigFrom(configPath, filepath.Join(dir, "settings"))
	assert.ErrorContains(t, err, "COMFYUI_PORT")
}
