package handlers

import (
	"net/http"
	"strings"

	"blueridge/models"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIChat serves POST /api/ai/chat.
func (hb *HandlerBundle) AIChat(c *gin.Context) {
	if hb.Chat == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "AI is not configured", "no language model API key")
		return
	}
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if len(req.Messages) == 0 && strings.TrimSpace(req.Message) == "" {
		utils.JSONError(c, http.StatusBadRequest, "messages required", "")
		return
	}

	resp, err := hb.Chat.Chat(c.Request.Context(), req)
	if err != nil {
		getLogger(c).Error("Chat failed", zap.String("session", req.SessionID), zap.Error(err))
		c.JSON(http.StatusOK, models.ChatResponse{Content: "Sorry, something went wrong on our side. Please try again in a moment."})
		return
	}
	c.JSON(http.StatusOK, resp)
}
