package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gpt-relay/internal/chat"
	"gpt-relay/internal/domain"
	"gpt-relay/internal/markdown"
	"gpt-relay/internal/provider"
)

type ChatHandler struct {
	orchestrator *chat.Orchestrator
	tts          *provider.Brian
}

func NewChatHandler(orchestrator *chat.Orchestrator, tts *provider.Brian) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		tts:          tts,
	}
}

// RegisterRoutes mounts every chat endpoint under /api/v1.
func (h *ChatHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/accounts", h.CreateAccount)

		api.POST("/chat", h.Chat)
		api.POST("/chat/regenerate", h.Regenerate)
		api.GET("/chat/history", h.GetHistory)
		api.DELETE("/chat/history", h.ClearHistory)
		api.POST("/chat/mode", h.ToggleMode)

		api.GET("/providers", h.GetProviders)
		api.PUT("/providers/:name", h.SetProvider)
		api.GET("/providers/ping", h.PingProviders)

		api.GET("/tts", h.TextToSpeech)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoAccount):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found, create it first"})
	case errors.Is(err, domain.ErrNothingToRegenerate):
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to regenerate yet"})
	case errors.Is(err, domain.ErrAllProvidersFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "none of the providers responded"})
	default:
		log.Printf("handler: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *ChatHandler) CreateAccount(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orchestrator.CreateAccount(c.Request.Context(), req.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		UserID  string `json:"user_id" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.orchestrator.Submit(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"display": markdown.Escape(reply),
	})
}

func (h *ChatHandler) Regenerate(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.orchestrator.Regenerate(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"display": markdown.Escape(reply),
	})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	history, err := h.orchestrator.History(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": history,
		"total":    len(history),
	})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := h.orchestrator.ClearHistory(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) ToggleMode(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enabled, err := h.orchestrator.ToggleMode(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func (h *ChatHandler) GetProviders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	providers, err := h.orchestrator.Providers(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *ChatHandler) SetProvider(c *gin.Context) {
	name := c.Param("name")
	var req struct {
		UserID  string `json:"user_id" binding:"required"`
		Enabled *bool  `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orchestrator.SetProviderEnabled(c.Request.Context(), req.UserID, name, *req.Enabled); err != nil {
		if errors.Is(err, domain.ErrNoAccount) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) PingProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.orchestrator.Ping(c.Request.Context())})
}

func (h *ChatHandler) TextToSpeech(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	audio, err := h.tts.Speak(c.Request.Context(), text)
	if err != nil {
		log.Printf("handler: tts failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech service unavailable"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
