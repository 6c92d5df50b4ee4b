// Package server exposes the configured model over HTTP.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afeedhshaji/gemcli/pkg/llm"
)

type GenerateRequest struct {
	Prompt          string   `json:"prompt"`
	System          string   `json:"system"`
	Temperature     *float32 `json:"temperature"`
	MaxOutputTokens int32    `json:"max_output_tokens"`
}

type Handler struct {
	LLM      llm.LLM
	Template llm.Request
}

// NewRouter registers the routes on a fresh gin engine. Access logs go to
// accessLog; nil turns them off so nothing ever reaches stdout.
func NewRouter(m llm.LLM, tmpl llm.Request, accessLog io.Writer) *gin.Engine {
	r := gin.New()
	if accessLog != nil {
		r.Use(gin.LoggerWithWriter(accessLog))
	}
	r.Use(gin.RecoveryWithWriter(recoveryWriter(accessLog)))

	h := &Handler{LLM: m, Template: tmpl}
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	api := r.Group("/api")
	{
		api.POST("/generate", h.Generate)
		api.GET("/models", h.Models)
	}
	return r
}

func (h *Handler) Generate(c *gin.Context) {
	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req := h.Template
	req.Prompt = body.Prompt
	if body.System != "" {
		req.SystemPrompt = body.System
	}
	if body.Temperature != nil {
		req.Temperature = body.Temperature
	}
	if body.MaxOutputTokens > 0 {
		req.MaxOutputTokens = body.MaxOutputTokens
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.LLM.Generate(c.Request.Context(), req)
	if err != nil {
		log.Printf("[server] generate failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Models(c *gin.Context) {
	models, err := h.LLM.Models(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func recoveryWriter(w io.Writer) io.Writer {
	if w == nil {
		return gin.DefaultErrorWriter
	}
	return w
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
