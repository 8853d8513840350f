package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"dreamlayer/birdbase"
	"dreamlayer/http/server"
	"dreamlayer/image/comfyui"
	"dreamlayer/image/workflow"
	"dreamlayer/logger"
	"dreamlayer/settings"
	"dreamlayer/status"
	"dreamlayer/text"
	"dreamlayer/text/gemini"
	"dreamlayer/text/ollama"
	"dreamlayer/text/openrouter"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the main config file")
	serviceDir := flag.String("settings", "settings", "directory holding per-service config overrides")
	flag.Parse()

	config, err := settings.LoadConfigFrom(*configPath, *serviceDir)
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(config.Logging)

	if err := birdbase.Init(config.Store.Path, config.Store.MaxValueSize); err != nil {
		logger.Fatal("Failed to open store", "path", config.Store.Path, "error", err)
	}
	defer func() {
		if err := birdbase.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	birdbase.StartMerging(ctx.Done())

	rules, err := routingRules(config.Models.Rules)
	if err != nil {
		logger.Fatal("Invalid model routing rules", "error", err)
	}

	engine := comfyui.New(comfyui.Config{
		Host:           config.ComfyUi.Host,
		Port:           config.ComfyUi.Port,
		Timeout:        time.Duration(config.ComfyUi.TimeoutSeconds) * time.Second,
		RecordTTLHours: config.Store.RecordTTLHours,
	})

	srv := server.New(server.Options{
		Server:         config.Server,
		Paths:          config.Paths,
		ForwardUploads: config.ComfyUi.ForwardUploads,
		Transformer: &workflow.Transformer{
			Normalizer:  workflow.Normalizer{DefaultCheckpoint: config.Models.DefaultCheckpoint},
			Router:      workflow.NewRouter(rules),
			Loader:      workflow.NewLoader(config.Paths.Templates),
			Credentials: config.ApiKeys.Credentials(),
		},
		Engine:    engine,
		Status:    status.NewClient(config.ComfyUi.Url(), time.Duration(config.ComfyUi.StatusCacheSeconds)*time.Second),
		Suggester: text.NewSuggester(promptProvider(config), config.Prompts.HistorySize),
	})

	logger.Info("DreamLayer starting", "engine", engine.Url(), "port", config.Server.Port,
		"prompts", config.Prompts.Provider, "rules", len(rules))

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server stopped", "error", err)
	}
	logger.Info("Goodbye")
}

func routingRules(configured []settings.ModelRule) ([]workflow.Rule, error) {
	rules := make([]workflow.Rule, 0, len(configured))
	for _, r := range configured {
		family, err := workflow.ParseFamily(r.Family)
		if err != nil {
			return nil, err
		}
		rules = append(rules, workflow.Rule{Name: r.Name, Contains: r.Contains, Family: family})
	}
	return rules, nil
}

func promptProvider(config *settings.Config) text.Provider {
	prompts := config.Prompts
	switch prompts.Provider {
	case "gemini":
		if config.ApiKeys.Gemini == "" {
			logger.Warn("Gemini prompt provider selected without an API key, using static prompts")
			return text.Static{}
		}
		return gemini.New(config.ApiKeys.Gemini, prompts.Gemini.Model)
	case "ollama":
		return ollama.New(prompts.Ollama.Url, prompts.Ollama.Port, prompts.Ollama.Model)
	case "openrouter":
		if config.ApiKeys.OpenRouter == "" {
			logger.Warn("OpenRouter prompt provider selected without an API key, using static prompts")
			return text.Static{}
		}
		return openrouter.New(prompts.OpenRouter.Url, config.ApiKeys.OpenRouter, prompts.OpenRouter.Model)
	default:
		return text.Static{}
	}
}
