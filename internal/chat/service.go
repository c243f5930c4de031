package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/suPer8Hu/supportbot/internal/common"
	"github.com/suPer8Hu/supportbot/internal/hybrid"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"github.com/suPer8Hu/supportbot/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyMessage = errors.New("message is required")

type LocalClassifier interface {
	Predict(ctx context.Context, text string) (intent.Label, float64, bool)
}

type RemoteClassifier interface {
	Classify(ctx context.Context, text string) intent.Label
}

type Sessions interface {
	RenderContext(id string) string
	AppendTurn(id, userText, reply string, prov *session.Provenance)
}

// Reply is what one chat turn returns to the caller.
type Reply struct {
	Response   string          `json:"response"`
	SessionID  string          `json:"session_id"`
	Provenance hybrid.Decision `json:"provenance_info"`
}

type Service struct {
	sessions Sessions
	local    LocalClassifier
	remote   RemoteClassifier
	gen      Generator
	logger   *zap.Logger
}

func NewService(sessions Sessions, local LocalClassifier, remote RemoteClassifier, gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, local: local, remote: remote, gen: gen, logger: logger}
}

// SendMessage classifies text with both models, reconciles them, composes
// a reply and records the turn. An empty sessionID starts a new session.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sid, err := common.NewULID()
		if err != nil {
			return nil, err
		}
		sessionID = sid
	}

	conversation := s.sessions.RenderContext(sessionID)

	// local predict and remote classify run side by side; neither fails,
	// they degrade to ("", 0) and intent.Other
	var (
		localLabel  intent.Label
		confidence  float64
		remoteLabel intent.Label
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if l, c, ok := s.local.Predict(gctx, text); ok {
			localLabel, confidence = l, c
		}
		return nil
	})
	g.Go(func() error {
		remoteLabel = s.remote.Classify(gctx, text)
		return nil
	})
	_ = g.Wait()

	d := hybrid.Decide(localLabel, confidence, remoteLabel)
	response := Compose(ctx, s.gen, d.Intent, text, conversation)

	s.sessions.AppendTurn(sessionID, text, response, &session.Provenance{
		FinalIntent:     d.Intent,
		Source:          d.Source,
		LocalIntent:     d.LocalIntent,
		LocalConfidence: d.LocalConfidence,
		RemoteIntent:    d.RemoteIntent,
	})

	s.logger.Info("chat turn",
		zap.String("session_id", sessionID),
		zap.String("intent", string(d.Intent)),
		zap.String("source", d.Source),
		zap.Float64("local_confidence", d.LocalConfidence),
	)
	return &Reply{Response: response, SessionID: sessionID, Provenance: d}, nil
}
