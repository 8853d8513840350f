package settings

import (
	"dreamlayer/logger"
)

type (
	Config struct {
		Server  ServerConfig  `toml:"server" validate:"required"`
		Paths   PathsConfig   `toml:"paths" validate:"required"`
		ComfyUi ComfyUiConfig `toml:"comfyui" validate:"required"`
		ApiKeys ApiKeys       `toml:"apiKeys"`
		Models  ModelsConfig  `toml:"models" validate:"required"`
		Store   StoreConfig   `toml:"store" validate:"required"`
		Prompts PromptsConfig `toml:"prompts"`
		Logging logger.Config `toml:"logging" validate:"required"`
	}

	ServerConfig struct {
		Host           string   `toml:"host"`
		Port           int      `toml:"port" validate:"required,gt=0,lte=65535"`
		AllowedOrigins []string `toml:"allowedOrigins" validate:"dive,required"`
		MaxUploadMB    int      `toml:"maxUploadMB" validate:"gte=0"`
	}

	PathsConfig struct {
		Checkpoints string `toml:"checkpoints" validate:"required"`
		ControlNet  string `toml:"controlnet"`
		Output      string `toml:"output" validate:"required"`
		Input       string `toml:"input" validate:"required"`
		// Templates shadows the embedded workflow templates when set.
		Templates string `toml:"templates"`
	}

	ComfyUiConfig struct {
		Host string `toml:"host" validate:"required"`
		Port int    `toml:"port" validate:"required,gt=0,lte=65535"`
		// TimeoutSeconds bounds the submission round trip. 0 keeps the transport default.
		TimeoutSeconds     int  `toml:"timeoutSeconds" validate:"gte=0"`
		ForwardUploads     bool `toml:"forwardUploads"`
		StatusCacheSeconds int  `toml:"statusCacheSeconds" validate:"gte=0"`
	}

	ApiKeys struct {
		OpenAI     string `toml:"openai"`
		Bfl        string `toml:"bfl"`
		Ideogram   string `toml:"ideogram"`
		Gemini     string `toml:"gemini"`
		OpenRouter string `toml:"openrouter"`
	}

	ModelsConfig struct {
		DefaultCheckpoint string      `toml:"defaultCheckpoint" validate:"required"`
		Rules             []ModelRule `toml:"rules" validate:"dive"`
	}

	ModelRule struct {
		Name     string `toml:"name" validate:"required_without=Contains"`
		Contains string `toml:"contains" validate:"required_without=Name"`
		Family   string `toml:"family" validate:"required,oneof=local dalle bfl ideogram"`
	}

	StoreConfig struct {
		Path           string `toml:"path" validate:"required"`
		RecordTTLHours int    `toml:"recordTTLHours" validate:"gte=0"`
		MaxValueSize   uint64 `toml:"maxValueSize"`
	}

	PromptsConfig struct {
		Provider    string           `toml:"provider" validate:"omitempty,oneof=static gemini ollama openrouter"`
		HistorySize int              `toml:"historySize" validate:"gte=0"`
		Gemini      GeminiConfig     `toml:"gemini"`
		Ollama      OllamaConfig     `toml:"ollama"`
		OpenRouter  OpenRouterConfig `toml:"openrouter"`
	}

	GeminiConfig struct {
		Model string `toml:"model"`
	}

	OllamaConfig struct {
		Url   string `toml:"url" validate:"omitempty,url"`
		Port  string `toml:"port"`
		Model string `toml:"model"`
	}

	OpenRouterConfig struct {
		Url   string `toml:"url" validate:"omitempty,url"`
		Model string `toml:"model"`
	}
)
