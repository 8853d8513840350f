package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"dreamlayer/image"
	"dreamlayer/image/comfyui"
	"dreamlayer/image/models"
	"dreamlayer/image/workflow"
	"dreamlayer/text"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) checkpoints(c *gin.Context) {
	list, err := models.Checkpoints(s.opts.Paths.Checkpoints)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "models": list})
}

// controlNetModels asks the engine first and falls back to the local directory.
func (s *Server) controlNetModels(c *gin.Context) {
	names, err := s.opts.Engine.ModelOptions("ControlNetLoader", "control_net_name")
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success", "models": names, "source": "engine"})
		return
	}
	requestLogger(c).Warn("Engine ControlNet list unavailable, reading directory", "error", err)

	if s.opts.Paths.ControlNet == "" {
		c.JSON(http.StatusOK, gin.H{"status": "success", "models": []string{}, "source": "none"})
		return
	}
	names, err = image.ListFiles(s.opts.Paths.ControlNet, models.CheckpointExtensions...)
	if err != nil {
		fail(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "models": names, "source": "directory"})
}

func (s *Server) upscalerModels(c *gin.Context) {
	names, err := s.opts.Engine.ModelOptions("UpscaleModelLoader", "model_name")
	if err != nil {
		requestLogger(c).Warn("Engine upscaler list unavailable, using known models", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "success", "models": workflow.UpscalerFiles(), "source": "static"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "models": names, "source": "engine"})
}

func (s *Server) fetchPrompt(c *gin.Context) {
	kind := text.ParseKind(c.DefaultQuery("type", string(text.Positive)))
	if reset, _ := strconv.ParseBool(c.Query("reset")); reset {
		s.opts.Suggester.Reset(kind)
	}
	suggestion := s.opts.Suggester.Fetch(c.Request.Context(), kind)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"prompt":  suggestion.Prompt,
		"type":    suggestion.Type,
		"source":  suggestion.Source,
		"message": "Prompt fetched successfully",
	})
}

func (s *Server) serveImage(c *gin.Context) {
	path, err := image.SafeJoin(s.opts.Paths.Output, c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, errorBody("image not found"))
		return
	}
	c.File(path)
}

func (s *Server) uploadControlNetImage(c *gin.Context) {
	log := requestLogger(c)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("no file provided"))
		return
	}
	limit := int64(maxUploadBytes(s.opts.Server))
	if header.Size > limit {
		c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf("file exceeds %d MB", limit>>20)))
		return
	}

	file, err := header.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		fail(c, err)
		return
	}
	if len(data) == 0 || !image.IsImage(data) {
		c.JSON(http.StatusBadRequest, errorBody(image.ErrNotImage.Error()))
		return
	}

	filename := fmt.Sprintf("controlnet_%s_%s", uuid.NewString()[:8], image.SanitizeName(header.Filename))
	path, err := image.SafeJoin(s.opts.Paths.Input, filename)
	if err != nil {
		fail(c, err)
		return
	}
	if err := os.MkdirAll(s.opts.Paths.Input, 0o755); err != nil {
		fail(c, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fail(c, err)
		return
	}

	upload := comfyui.Upload{Filename: filename, Size: int64(len(data)), UploadedAt: time.Now().UTC()}
	if s.opts.ForwardUploads {
		name, err := s.opts.Engine.Upload(bytes.NewReader(data), filename)
		if err != nil {
			log.Warn("Failed to forward upload to engine", "file", filename, "error", err)
		} else {
			upload.Forwarded = true
			upload.EngineName = name
		}
	}
	if err := s.opts.Engine.SaveUpload(upload); err != nil {
		log.Warn("Failed to store upload record", "file", filename, "error", err)
	}

	log.Info("Stored ControlNet image", "file", filename, "bytes", len(data), "forwarded", upload.Forwarded)
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Image uploaded successfully",
		"filename": filename,
	})
}

func (s *Server) health(c *gin.Context) {
	if s.opts.Status == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, s.opts.Status.Health(c.Request.Context()))
}
