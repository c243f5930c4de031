package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/supportbot/internal/chat"
	"github.com/suPer8Hu/supportbot/internal/common"
	"github.com/suPer8Hu/supportbot/internal/feedback"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"go.uber.org/zap"
)

type getResponseReq struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

func (h *Handler) GetResponse(c *gin.Context) {
	var req getResponseReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		common.Fail(c, http.StatusBadRequest, 10001, "message is required")
		return
	}

	reply, err := h.Chat.SendMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			common.Fail(c, http.StatusBadRequest, 10001, "message is required")
			return
		}
		h.Logger.Error("send message failed", zap.Error(err), zap.String("session_id", req.SessionID))
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to generate response")
		return
	}
	common.OK(c, reply)
}

type feedbackReq struct {
	Text      string `json:"text" binding:"required"`
	Predicted string `json:"predicted_intent" binding:"required"`
	Actual    string `json:"actual_intent" binding:"required"`
	Satisfied *bool  `json:"satisfied"`
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "text, predicted_intent and actual_intent are required")
		return
	}

	err := h.Feedback.Record(c.Request.Context(), feedback.Record{
		Text:      req.Text,
		Predicted: intent.Label(req.Predicted),
		Corrected: intent.Label(req.Actual),
		Satisfied: req.Satisfied,
	})
	if err != nil {
		if errors.Is(err, feedback.ErrInvalid) {
			common.Fail(c, http.StatusBadRequest, 10002, "invalid feedback")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to record feedback")
		return
	}

	// the maintenance loop picks the retrain up; the request never waits on it
	common.OK(c, gin.H{
		"recorded":          true,
		"retrain_triggered": h.Feedback.Due(),
	})
}
