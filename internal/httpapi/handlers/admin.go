package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/supportbot/internal/classifier"
	"github.com/suPer8Hu/supportbot/internal/common"
	"github.com/suPer8Hu/supportbot/internal/events"
	"github.com/suPer8Hu/supportbot/internal/feedback"
	"go.uber.org/zap"
)

func (h *Handler) Retrain(c *gin.Context) {
	m, err := h.Feedback.Retrain(c.Request.Context())
	switch {
	case err == nil:
	case errors.Is(err, classifier.ErrInsufficientData):
		common.Fail(c, http.StatusUnprocessableEntity, 42201, "insufficient data")
		return
	case errors.Is(err, feedback.ErrBusy):
		common.Fail(c, http.StatusConflict, 40901, "retrain already in progress")
		return
	default:
		h.Logger.Error("manual retrain failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "retrain failed")
		return
	}

	out := gin.H{
		"status":  "retrain completed",
		"version": m.Version,
		"samples": m.Samples,
	}
	if m.Accuracy != nil {
		out["accuracy"] = *m.Accuracy
	}
	common.OK(c, out)
}

func (h *Handler) ListSessions(c *gin.Context) {
	common.OK(c, gin.H{"sessions": h.Sessions.List(time.Now())})
}

func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("session_id")
	msgs, ok := h.Sessions.History(id)
	if !ok {
		common.Fail(c, http.StatusNotFound, 40401, "session not found")
		return
	}
	common.OK(c, gin.H{"session_id": id, "messages": msgs})
}

type mlStatsResp struct {
	classifier.Stats
	FeedbackCount   int `json:"feedback_count"`
	PendingFeedback int `json:"pending_feedback"`

	// audit figures, only with a database
	Predictions24h *int64 `json:"predictions_24h,omitempty"`
	RetrainEvents  *int64 `json:"retrain_events,omitempty"`
}

func (h *Handler) MLStats(c *gin.Context) {
	st := h.Model.Stats()
	if h.CorpusLen != nil {
		st.TrainingDataCount = h.CorpusLen()
	}
	out := mlStatsResp{
		Stats:           st,
		FeedbackCount:   h.Feedback.Total(),
		PendingFeedback: h.Feedback.Len(),
	}
	if h.Audit != nil {
		ctx := c.Request.Context()
		if n, err := h.Audit.CountPredictionsSince(ctx, time.Now().Add(-24*time.Hour)); err == nil {
			out.Predictions24h = &n
		} else {
			h.Logger.Warn("count predictions failed", zap.Error(err))
		}
		if n, err := h.Audit.CountEvents(ctx, events.TypeModelRetrained); err == nil {
			out.RetrainEvents = &n
		} else {
			h.Logger.Warn("count retrain events failed", zap.Error(err))
		}
	}
	common.OK(c, out)
}

// ListPredictions pages the newest entries of the prediction log.
func (h *Handler) ListPredictions(c *gin.Context) {
	if h.Audit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "audit log not configured")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	preds, err := h.Audit.ListPredictions(c.Request.Context(), limit)
	if err != nil {
		h.Logger.Error("list predictions failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list predictions")
		return
	}
	common.OK(c, gin.H{"predictions": preds})
}
