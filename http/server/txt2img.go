package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"dreamlayer/birdbase"
	"dreamlayer/image/comfyui"
	"dreamlayer/image/workflow"

	"github.com/gin-gonic/gin"
)

// maxRequestBytes bounds a txt2img body; custom workflows can be large.
const maxRequestBytes = 8 << 20

func (s *Server) txt2img(c *gin.Context) {
	log := requestLogger(c)
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		fail(c, &workflow.ValidationError{Details: []workflow.FieldError{{
			Loc: []any{"body"}, Msg: "Request body could not be read", Type: "value_error",
		}}})
		return
	}

	req, err := workflow.DecodeRequest(body)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := s.opts.Transformer.Transform(req)
	if err != nil {
		fail(c, err)
		return
	}
	log.Debug("Built workflow", "family", result.Family, "template", result.Template,
		"custom", result.Custom, "passes", result.Passes, "nodes", len(result.Graph.Nodes))

	// A submission already sent is not cancelled by a client disconnect.
	sub, err := s.opts.Engine.Submit(context.WithoutCancel(c.Request.Context()), result.Graph)
	if err != nil {
		fail(c, err)
		return
	}

	if err := s.opts.Engine.SaveRecord(comfyui.NewRecord(sub, result, start)); err != nil {
		log.Warn("Failed to store submission record", "client_id", sub.ClientID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Workflow submitted to ComfyUI",
		"prompt_id": sub.PromptID,
		"client_id": sub.ClientID,
	})
}

func (s *Server) interrupt(c *gin.Context) {
	if err := s.opts.Engine.Interrupt(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Interrupt sent"})
}

func (s *Server) submission(c *gin.Context) {
	rec, err := s.opts.Engine.LookupRecord(c.Param("client_id"))
	if errors.Is(err, birdbase.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody("submission not found"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "submission": rec})
}
