package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dreamlayer/image/comfyui"
	"dreamlayer/image/workflow"
	"dreamlayer/logger"
	"dreamlayer/settings"
	"dreamlayer/status"
	"dreamlayer/text"

	"github.com/gin-gonic/gin"
)

type (
	// Engine is the part of the engine client the handlers use.
	Engine interface {
		Submit(ctx context.Context, g *workflow.Graph) (*comfyui.Submission, error)
		SaveRecord(rec comfyui.Record) error
		LookupRecord(clientID string) (*comfyui.Record, error)
		SaveUpload(u comfyui.Upload) error
		ModelOptions(classType, input string) ([]string, error)
		Upload(r io.Reader, filename string) (string, error)
		Interrupt() error
	}

	HealthChecker interface {
		Health(ctx context.Context) status.Health
	}

	Options struct {
		Server         settings.ServerConfig
		Paths          settings.PathsConfig
		ForwardUploads bool
		Transformer    *workflow.Transformer
		Engine         Engine
		Status         HealthChecker
		Suggester      *text.Suggester
	}

	Server struct {
		opts   Options
		router *gin.Engine
	}
)

func New(opts Options) *Server {
	if opts.Suggester == nil {
		opts.Suggester = text.NewSuggester(text.Static{}, 0)
	}

	router := gin.New()
	router.MaxMultipartMemory = int64(maxUploadBytes(opts.Server))
	router.Use(gin.Recovery(), requestID(), requestLog(), corsMiddleware(opts.Server.AllowedOrigins))

	s := &Server{opts: opts, router: router}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	{
		api.POST("/txt2img", s.txt2img)
		api.POST("/txt2img/interrupt", s.interrupt)
		api.GET("/submissions/:client_id", s.submission)

		api.GET("/models", s.checkpoints)
		api.GET("/controlnet/models", s.controlNetModels)
		api.GET("/upscaler-models", s.upscalerModels)
		api.GET("/fetch-prompt", s.fetchPrompt)

		api.GET("/images/:filename", s.serveImage)
		api.POST("/upload-controlnet-image", s.uploadControlNetImage)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests for up to ten seconds.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.opts.Server.Host, s.opts.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func maxUploadBytes(cfg settings.ServerConfig) int {
	if cfg.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return cfg.MaxUploadMB << 20
}
