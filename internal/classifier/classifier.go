package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
	"go.uber.org/zap"
)

const (
	ModelFile      = "intent_model.json"
	VectorizerFile = "vectorizer.json"
	CorpusFile     = "training_data.json"

	// validation split is only attempted from this corpus size up
	minValidationSamples = 20
	validationFraction   = 0.2
	splitSeed            = 42
)

// PredictionLog receives every successful prediction.
type PredictionLog interface {
	RecordPrediction(ctx context.Context, text string, label intent.Label, confidence float64) error
}

// snapshot pairs a vectorizer with the model fitted on its output. It is
// never mutated after construction.
type snapshot struct {
	vec       *Vectorizer
	model     *Model
	version   int
	trainedAt time.Time
	accuracy  *float64
}

// vectorizerFile carries the version of the model it was fitted with; the
// two files are renamed separately and Load checks they belong together.
type vectorizerFile struct {
	Version    int         `json:"version"`
	Vectorizer *Vectorizer `json:"vectorizer"`
}

type modelFile struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Model     *Model    `json:"model"`
}

type Classifier struct {
	dir         string
	maxFeatures int
	log         PredictionLog
	logger      *zap.Logger

	mu     sync.RWMutex
	active *snapshot

	// serialises concurrent Train calls; fitting happens outside mu
	trainMu sync.Mutex

	predictions atomic.Int64
	corpusLen   atomic.Int64
}

type Option func(*Classifier)

func WithPredictionLog(l PredictionLog) Option {
	return func(c *Classifier) { c.log = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMaxFeatures(n int) Option {
	return func(c *Classifier) { c.maxFeatures = n }
}

// New creates an unset classifier persisting under dir. An empty dir
// disables persistence.
func New(dir string, opts ...Option) *Classifier {
	c := &Classifier{dir: dir, maxFeatures: 5000, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Classifier) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Loaded reports whether a snapshot is active.
func (c *Classifier) Loaded() bool { return c.current() != nil }

// Train fits a new snapshot on corpus and swaps it in. Below MinSamples, or
// with fewer than two intents, it returns ErrInsufficientData and the
// active snapshot is left as it was.
func (c *Classifier) Train(ctx context.Context, corpus []TrainingExample) (Metrics, error) {
	if len(corpus) < MinSamples {
		return Metrics{}, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(corpus), MinSamples)
	}
	texts := make([]string, len(corpus))
	labels := make([]intent.Label, len(corpus))
	weights := make([]float64, len(corpus))
	for i, ex := range corpus {
		ex = normalize(ex)
		texts[i], labels[i], weights[i] = ex.Text, ex.Intent, ex.Confidence
	}
	if len(classesOf(labels)) < 2 {
		return Metrics{}, fmt.Errorf("%w: need at least 2 intents", ErrInsufficientData)
	}

	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	start := time.Now()
	var accuracy *float64
	trainIdx, valIdx := stratifiedSplit(labels)
	if len(valIdx) > 0 {
		vec, model := c.fit(pick(texts, trainIdx), pick(labels, trainIdx), pick(weights, trainIdx))
		hits := 0
		for _, i := range valIdx {
			if got, _ := model.Predict(vec.Transform(texts[i])); got == labels[i] {
				hits++
			}
			if err := ctx.Err(); err != nil {
				return Metrics{}, err
			}
		}
		acc := float64(hits) / float64(len(valIdx))
		accuracy = &acc
	}
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	vec, model := c.fit(texts, labels, weights)

	next := &snapshot{vec: vec, model: model, trainedAt: time.Now(), accuracy: accuracy}
	c.mu.Lock()
	next.version = 1
	if c.active != nil {
		next.version = c.active.version + 1
	}
	c.active = next
	c.mu.Unlock()
	c.corpusLen.Store(int64(len(corpus)))

	m := Metrics{
		Version:       next.version,
		Samples:       len(corpus),
		Classes:       len(model.Classes),
		Features:      vec.Dim(),
		Accuracy:      accuracy,
		ValidationLen: len(valIdx),
		TrainedAt:     next.trainedAt,
	}
	c.logger.Info("classifier trained",
		zap.Int("version", m.Version),
		zap.Int("samples", m.Samples),
		zap.Int("features", m.Features),
		zap.Duration("took", time.Since(start)),
	)

	// the in-memory swap already happened; a failed write is retried by the
	// next successful Train
	if err := c.save(next, corpus); err != nil {
		c.logger.Warn("persist classifier snapshot failed", zap.Error(err))
	}
	return m, nil
}

func (c *Classifier) fit(texts []string, labels []intent.Label, weights []float64) (*Vectorizer, *Model) {
	vec := NewVectorizer(c.maxFeatures)
	vec.Fit(texts)
	xs := make([]sparseVec, len(texts))
	for i, t := range texts {
		xs[i] = vec.Transform(t)
	}
	return vec, fitModel(xs, labels, weights, vec.Dim(), defaultFit)
}

// Predict returns the most probable intent and its probability. ok is false
// when no snapshot has been trained or loaded yet.
func (c *Classifier) Predict(ctx context.Context, text string) (label intent.Label, confidence float64, ok bool) {
	s := c.current()
	if s == nil {
		return "", 0, false
	}
	label, confidence = s.model.Predict(s.vec.Transform(text))
	c.predictions.Add(1)
	if c.log != nil {
		if err := c.log.RecordPrediction(ctx, text, label, confidence); err != nil {
			c.logger.Warn("record prediction failed", zap.Error(err))
		}
	}
	return label, confidence, true
}

// Save writes the active snapshot. It is a no-op when nothing is trained.
func (c *Classifier) Save(corpus []TrainingExample) error {
	s := c.current()
	if s == nil {
		return nil
	}
	return c.save(s, corpus)
}

func (c *Classifier) save(s *snapshot, corpus []TrainingExample) error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	vf := vectorizerFile{Version: s.version, Vectorizer: s.vec}
	if err := writeJSON(filepath.Join(c.dir, VectorizerFile), vf); err != nil {
		return fmt.Errorf("write vectorizer: %w", err)
	}
	mf := modelFile{Version: s.version, TrainedAt: s.trainedAt, Accuracy: s.accuracy, Model: s.model}
	if err := writeJSON(filepath.Join(c.dir, ModelFile), mf); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if corpus != nil {
		if err := writeJSON(filepath.Join(c.dir, CorpusFile), corpus); err != nil {
			return fmt.Errorf("write corpus: %w", err)
		}
	}
	return nil
}

// Load restores the snapshot from disk. Missing files leave the classifier
// unset and are not an error.
func (c *Classifier) Load() (bool, error) {
	if c.dir == "" {
		return false, nil
	}
	var vf vectorizerFile
	if err := readJSON(filepath.Join(c.dir, VectorizerFile), &vf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read vectorizer: %w", err)
	}
	var mf modelFile
	if err := readJSON(filepath.Join(c.dir, ModelFile), &mf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read model: %w", err)
	}
	if mf.Model == nil || len(mf.Model.Classes) == 0 || vf.Vectorizer == nil {
		return false, fmt.Errorf("read model: empty snapshot")
	}
	if vf.Version != mf.Version {
		return false, fmt.Errorf("%w: vectorizer v%d, model v%d", ErrSnapshotMismatch, vf.Version, mf.Version)
	}
	for _, w := range mf.Model.Weights {
		if len(w) != vf.Vectorizer.Dim() {
			return false, fmt.Errorf("%w: %d features, model expects %d", ErrSnapshotMismatch, vf.Vectorizer.Dim(), len(w))
		}
	}

	s := &snapshot{vec: vf.Vectorizer, model: mf.Model, version: mf.Version, trainedAt: mf.TrainedAt, accuracy: mf.Accuracy}
	c.mu.Lock()
	c.active = s
	c.mu.Unlock()
	return true, nil
}

// CorpusPath is where the training corpus is persisted.
func (c *Classifier) CorpusPath() string {
	if c.dir == "" {
		return ""
	}
	return filepath.Join(c.dir, CorpusFile)
}

func (c *Classifier) Stats() Stats {
	st := Stats{
		PredictionCount:   c.predictions.Load(),
		TrainingDataCount: int(c.corpusLen.Load()),
	}
	s := c.current()
	if s == nil {
		return st
	}
	st.ModelLoaded = s.model != nil
	st.VectorizerLoaded = s.vec != nil
	st.Version = s.version
	t := s.trainedAt
	st.TrainedAt = &t
	if s.accuracy != nil {
		st.RecentAccuracy = *s.accuracy
	}
	return st
}

// SetCorpusLen lets the owner of the corpus report its size for Stats.
func (c *Classifier) SetCorpusLen(n int) { c.corpusLen.Store(int64(n)) }

// stratifiedSplit holds out about validationFraction of every class. It
// returns no validation indices when the corpus is too small or any class
// has fewer than two examples.
func stratifiedSplit(labels []intent.Label) (train, val []int) {
	byClass := make(map[intent.Label][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	all := make([]int, len(labels))
	for i := range all {
		all[i] = i
	}
	if len(labels) < minValidationSamples {
		return all, nil
	}
	for _, idx := range byClass {
		if len(idx) < 2 {
			return all, nil
		}
	}

	rng := rand.New(rand.NewSource(splitSeed))
	for _, l := range classesOf(labels) {
		idx := append([]int(nil), byClass[l]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		hold := int(float64(len(idx))*validationFraction + 0.5)
		if hold < 1 {
			hold = 1
		}
		if hold > len(idx)-1 {
			hold = len(idx) - 1
		}
		val = append(val, idx[:hold]...)
		train = append(train, idx[hold:]...)
	}
	return train, val
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
