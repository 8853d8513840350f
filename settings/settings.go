package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// LoadConfig loads the configuration from the config.toml file and all service configs.
// It returns a pointer to the Config struct or an error if loading fails.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("config.toml", "settings")
}

// LoadConfigFrom is LoadConfig with explicit locations for the main file and the
// directory holding per-service overrides.
func LoadConfigFrom(configPath, serviceDir string) (*Config, error) {
	var config Config

	// Check if main config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// Get absolute path for better error messages
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		absPath = configPath // fallback to relative path
	}

	config.applyDefaults()

	_, err = toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", absPath, err)
	}

	// Load service-specific configs
	if err := loadServiceConfigs(&config, serviceDir); err != nil {
		return nil, fmt.Errorf("error loading service configs: %w", err)
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load(filepath.Join(filepath.Dir(configPath), ".env"))
	if err := config.applyEnv(); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// loadServiceConfigs loads all individual service configuration files
func loadServiceConfigs(config *Config, dir string) error {
	serviceConfigs := map[string]interface{}{
		"comfyui.toml": &config.ComfyUi,
		"prompts.toml": &config.Prompts,
		"logging.toml": &config.Logging,
	}

	for name, configStruct := range serviceConfigs {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			// This is not a fatal error, just a warning
			continue
		}

		_, err := toml.DecodeFile(configPath, configStruct)
		if err != nil {
			return fmt.Errorf("error parsing service config file %s: %w", configPath, err)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = 5001
	c.Server.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	c.Server.MaxUploadMB = 32
	c.ComfyUi.Host = "127.0.0.1"
	c.ComfyUi.Port = 8188
	c.ComfyUi.StatusCacheSeconds = 10
	c.Models.DefaultCheckpoint = "juggernautXL_v8Rundiffusion.safetensors"
	c.Store.Path = "dreamlayer.db"
	c.Store.RecordTTLHours = 24 * 7
	c.Prompts.Provider = "static"
	c.Prompts.HistorySize = 20
	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

func (c *Config) applyEnv() error {
	secrets := map[string]*string{
		"OPENAI_API_KEY":     &c.ApiKeys.OpenAI,
		"BFL_API_KEY":        &c.ApiKeys.Bfl,
		"IDEOGRAM_API_KEY":   &c.ApiKeys.Ideogram,
		"GEMINI_API_KEY":     &c.ApiKeys.Gemini,
		"OPENROUTER_API_KEY": &c.ApiKeys.OpenRouter,
		"COMFYUI_HOST":       &c.ComfyUi.Host,
	}
	for name, dst := range secrets {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	ports := map[string]*int{
		"COMFYUI_PORT":    &c.ComfyUi.Port,
		"DREAMLAYER_PORT": &c.Server.Port,
	}
	for name, dst := range ports {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", name, v)
		}
		*dst = port
	}

	return nil
}

// Url returns the base address of the engine, e.g. http://127.0.0.1:8188.
func (c ComfyUiConfig) Url() string {
	host := strings.TrimSuffix(c.Host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// Credentials returns the engine API credentials keyed by provider name.
func (k ApiKeys) Credentials() map[string]string {
	return map[string]string{
		"openai":   k.OpenAI,
		"bfl":      k.Bfl,
		"ideogram": k.Ideogram,
	}
}
