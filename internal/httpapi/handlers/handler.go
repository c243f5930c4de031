package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/supportbot/internal/audit"
	"github.com/suPer8Hu/supportbot/internal/chat"
	"github.com/suPer8Hu/supportbot/internal/classifier"
	"github.com/suPer8Hu/supportbot/internal/common"
	"github.com/suPer8Hu/supportbot/internal/feedback"
	"github.com/suPer8Hu/supportbot/internal/session"
	"go.uber.org/zap"
)

type ChatService interface {
	SendMessage(ctx context.Context, sessionID, text string) (*chat.Reply, error)
}

type FeedbackLedger interface {
	Record(ctx context.Context, r feedback.Record) error
	Retrain(ctx context.Context) (classifier.Metrics, error)
	Due() bool
	Len() int
	Total() int
}

type SessionDirectory interface {
	List(now time.Time) []session.Summary
	History(id string) ([]session.Message, bool)
}

type ModelStats interface {
	Stats() classifier.Stats
}

// AuditLog is the optional database-backed history of predictions and
// archived events.
type AuditLog interface {
	ListPredictions(ctx context.Context, limit int) ([]audit.Prediction, error)
	CountPredictionsSince(ctx context.Context, since time.Time) (int64, error)
	CountEvents(ctx context.Context, typ string) (int64, error)
}

type Handler struct {
	Chat     ChatService
	Feedback FeedbackLedger
	Sessions SessionDirectory
	Model    ModelStats
	// CorpusLen reports the live corpus size; Stats only sees it per training run.
	CorpusLen func() int
	// nil when no database is configured
	Audit  AuditLog
	Logger *zap.Logger
}

func NewHandler(chatSvc ChatService, ledger FeedbackLedger, sessions SessionDirectory, model ModelStats, corpusLen func() int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Chat:      chatSvc,
		Feedback:  ledger,
		Sessions:  sessions,
		Model:     model,
		CorpusLen: corpusLen,
		Logger:    logger,
	}
}

// WithAudit enables the audit-backed admin views.
func (h *Handler) WithAudit(a AuditLog) *Handler {
	h.Audit = a
	return h
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
