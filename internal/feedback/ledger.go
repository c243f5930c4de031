package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/suPer8Hu/supportbot/internal/classifier"
	"github.com/suPer8Hu/supportbot/internal/events"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"go.uber.org/zap"
)

const DefaultThreshold = 20

var (
	ErrInvalid = errors.New("invalid feedback")
	// ErrBusy is returned by Retrain while another retrain is running.
	ErrBusy = errors.New("retrain already in progress")
)

// Record is one piece of user feedback on a prediction.
type Record struct {
	Text      string       `json:"text"`
	Predicted intent.Label `json:"predicted_intent"`
	Corrected intent.Label `json:"actual_intent,omitempty"`
	Satisfied *bool        `json:"satisfied,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Trainer is the part of the local classifier the ledger drives.
type Trainer interface {
	Train(ctx context.Context, corpus []classifier.TrainingExample) (classifier.Metrics, error)
}

// Ledger accumulates feedback until there is enough to retrain.
type Ledger struct {
	corpus    *classifier.Corpus
	trainer   Trainer
	publisher events.Publisher
	threshold int
	logger    *zap.Logger

	mu      sync.Mutex
	records []Record
	total   int

	drainMu sync.Mutex
	ready   chan struct{}
}

func NewLedger(corpus *classifier.Corpus, trainer Trainer, publisher events.Publisher, threshold int, logger *zap.Logger) *Ledger {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		corpus:    corpus,
		trainer:   trainer,
		publisher: publisher,
		threshold: threshold,
		logger:    logger,
		ready:     make(chan struct{}, 1),
	}
}

// Record appends feedback. A correction that differs from the prediction
// also becomes a training example.
func (l *Ledger) Record(ctx context.Context, r Record) error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" || r.Predicted == "" {
		return ErrInvalid
	}
	r.Predicted = intent.Parse(string(r.Predicted))
	if r.Corrected != "" {
		r.Corrected = intent.Parse(string(r.Corrected))
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	if r.Corrected != "" && r.Corrected != r.Predicted {
		l.corpus.Add(classifier.TrainingExample{
			Text:       r.Text,
			Intent:     r.Corrected,
			Confidence: 1.0,
			Timestamp:  r.Timestamp,
		})
	}

	l.mu.Lock()
	l.records = append(l.records, r)
	l.total++
	n := len(l.records)
	l.mu.Unlock()

	if n >= l.threshold {
		select {
		case l.ready <- struct{}{}:
		default:
		}
	}

	if e, err := events.New(events.TypeFeedbackRecorded, r); err == nil {
		if err := l.publisher.Publish(ctx, e); err != nil {
			l.logger.Warn("publish feedback event failed", zap.Error(err))
		}
	}
	return nil
}

// Ready fires when the ledger has reached the retrain threshold.
func (l *Ledger) Ready() <-chan struct{} { return l.ready }

// Len is the number of records waiting for the next retrain.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Due reports whether enough feedback is pending for a retrain.
func (l *Ledger) Due() bool { return l.Len() >= l.threshold }

// Total is the number of records ever accepted.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// DrainIfReady retrains once the threshold is reached. The ledger is only
// cleared when training succeeds; on any error it is kept for the next
// cycle. It reports whether a retrain happened.
func (l *Ledger) DrainIfReady(ctx context.Context) (bool, error) {
	if l.Len() < l.threshold {
		return false, nil
	}
	if !l.drainMu.TryLock() {
		return false, nil
	}
	defer l.drainMu.Unlock()

	if _, err := l.retrain(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Retrain trains on the full corpus regardless of the threshold.
func (l *Ledger) Retrain(ctx context.Context) (classifier.Metrics, error) {
	if !l.drainMu.TryLock() {
		return classifier.Metrics{}, ErrBusy
	}
	defer l.drainMu.Unlock()
	return l.retrain(ctx)
}

func (l *Ledger) retrain(ctx context.Context) (classifier.Metrics, error) {
	// records arriving during the fit stay for the next cycle
	pending := l.Len()
	corpus := l.corpus.Snapshot()

	m, err := l.trainer.Train(ctx, corpus)
	if err != nil {
		return m, err
	}

	l.mu.Lock()
	if pending > len(l.records) {
		pending = len(l.records)
	}
	l.records = append([]Record(nil), l.records[pending:]...)
	l.mu.Unlock()

	if e, err := events.New(events.TypeModelRetrained, m); err == nil {
		if err := l.publisher.Publish(ctx, e); err != nil {
			l.logger.Warn("publish retrain event failed", zap.Error(err))
		}
	}
	return m, nil
}
