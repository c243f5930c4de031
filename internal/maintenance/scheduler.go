package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/suPer8Hu/supportbot/internal/classifier"
	"go.uber.org/zap"
)

const DefaultInterval = time.Hour

type Expirer interface {
	ExpireIdle(now time.Time) int
}

type Drainer interface {
	DrainIfReady(ctx context.Context) (bool, error)
	Ready() <-chan struct{}
}

// Scheduler runs the recurring maintenance tick: expire idle sessions, then
// retrain if enough feedback has piled up. A failing step never stops it.
type Scheduler struct {
	sessions Expirer
	ledger   Drainer
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	done chan struct{}
	once sync.Once
}

func New(sessions Expirer, ledger Drainer, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sessions: sessions,
		ledger:   ledger,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the loop in a goroutine. It returns immediately; the loop
// exits when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		go s.run(ctx)
	})
}

// Wait blocks until a started loop has exited.
func (s *Scheduler) Wait() { <-s.done }

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("maintenance scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler shutting down", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.ledger.Ready():
			// threshold reached between ticks; retrain without waiting
			s.drain(ctx)
		}
	}
}

// Tick runs one maintenance pass.
func (s *Scheduler) Tick(ctx context.Context) {
	s.expire()
	s.drain(ctx)
}

func (s *Scheduler) expire() {
	defer s.recover("expire sessions")
	if n := s.sessions.ExpireIdle(s.now()); n > 0 {
		s.logger.Info("expired idle sessions", zap.Int("count", n))
	}
}

func (s *Scheduler) drain(ctx context.Context) {
	defer s.recover("drain feedback")
	ran, err := s.ledger.DrainIfReady(ctx)
	switch {
	case errors.Is(err, classifier.ErrInsufficientData):
		s.logger.Debug("retrain skipped", zap.Error(err))
	case err != nil:
		s.logger.Error("retrain failed", zap.Error(err))
	case ran:
		s.logger.Info("retrained from feedback")
	}
}

func (s *Scheduler) recover(step string) {
	if r := recover(); r != nil {
		s.logger.Error("maintenance step panicked",
			zap.String("step", step),
			zap.String("panic", fmt.Sprint(r)),
		)
	}
}
