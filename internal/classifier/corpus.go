package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

// Corpus is the append-only training set. It has its own lock, separate
// from the classifier snapshot lock, and hands out copies for training.
type Corpus struct {
	mu       sync.Mutex
	examples []TrainingExample
}

func NewCorpus(seed []TrainingExample) *Corpus {
	c := &Corpus{}
	c.Replace(seed)
	return c
}

func normalize(ex TrainingExample) TrainingExample {
	if !ex.Intent.Valid() {
		ex.Intent = intent.Parse(string(ex.Intent))
	}
	if ex.Confidence <= 0 {
		ex.Confidence = 1.0
	}
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now()
	}
	return ex
}

func (c *Corpus) Add(ex TrainingExample) {
	ex = normalize(ex)
	c.mu.Lock()
	c.examples = append(c.examples, ex)
	c.mu.Unlock()
}

// Snapshot returns a copy safe to use without holding the lock.
func (c *Corpus) Snapshot() []TrainingExample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TrainingExample(nil), c.examples...)
}

// Replace swaps the whole corpus, e.g. on retrain-from-scratch.
func (c *Corpus) Replace(all []TrainingExample) {
	out := make([]TrainingExample, 0, len(all))
	for _, ex := range all {
		out = append(out, normalize(ex))
	}
	c.mu.Lock()
	c.examples = out
	c.mu.Unlock()
}

func (c *Corpus) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.examples)
}

func (c *Corpus) Save(path string) error {
	return writeJSON(path, c.Snapshot())
}

// Load replaces the corpus with the file at path. A missing file leaves the
// corpus untouched and reports false.
func (c *Corpus) Load(path string) (bool, error) {
	var all []TrainingExample
	if err := readJSON(path, &all); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load corpus: %w", err)
	}
	c.Replace(all)
	return true, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
