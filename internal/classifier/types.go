package classifier

import (
	"errors"
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

// MinSamples is the smallest corpus Train accepts.
const MinSamples = 10

var (
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrSnapshotMismatch means the vectorizer and model files on disk come
	// from different training runs.
	ErrSnapshotMismatch = errors.New("vectorizer and model files do not match")
)

// TrainingExample is one labelled text. Seed examples carry confidence 1.0.
type TrainingExample struct {
	Text       string       `json:"text"`
	Intent     intent.Label `json:"intent"`
	Confidence float64      `json:"confidence"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Metrics describes a finished training run. Accuracy is nil when the corpus
// was too small for a validation split.
type Metrics struct {
	Version       int       `json:"version"`
	Samples       int       `json:"samples"`
	Classes       int       `json:"classes"`
	Features      int       `json:"features"`
	Accuracy      *float64  `json:"accuracy,omitempty"`
	ValidationLen int       `json:"validation_samples"`
	TrainedAt     time.Time `json:"trained_at"`
}

// Stats is the observability view of the classifier.
type Stats struct {
	ModelLoaded       bool       `json:"model_loaded"`
	VectorizerLoaded  bool       `json:"vectorizer_loaded"`
	Version           int        `json:"version"`
	TrainedAt         *time.Time `json:"trained_at,omitempty"`
	RecentAccuracy    float64    `json:"recent_accuracy"`
	PredictionCount   int64      `json:"prediction_count"`
	TrainingDataCount int        `json:"training_data_count"`
}
