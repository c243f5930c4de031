package classifier

import (
	"math"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

// Model is a multinomial logistic regression over sparse vectors.
type Model struct {
	Classes []intent.Label `json:"classes"`
	Weights [][]float64    `json:"weights"`
	Bias    []float64      `json:"bias"`
}

type fitParams struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

var defaultFit = fitParams{Epochs: 400, LearningRate: 1.0, L2: 1e-4}

// fitModel trains with full-batch gradient descent. Each sample's weight is
// its confidence times the balanced weight of its class, n / (k * n_c).
func fitModel(xs []sparseVec, ys []intent.Label, sampleWeights []float64, dim int, p fitParams) *Model {
	classes := classesOf(ys)
	k := len(classes)
	classIdx := make(map[intent.Label]int, k)
	for i, c := range classes {
		classIdx[c] = i
	}

	counts := make([]float64, k)
	for _, y := range ys {
		counts[classIdx[y]]++
	}
	n := float64(len(ys))
	w := make([]float64, len(ys))
	var total float64
	for i, y := range ys {
		c := classIdx[y]
		w[i] = sampleWeights[i] * n / (float64(k) * counts[c])
		total += w[i]
	}
	if total == 0 {
		total = 1
	}

	m := &Model{
		Classes: classes,
		Weights: make([][]float64, k),
		Bias:    make([]float64, k),
	}
	for c := range m.Weights {
		m.Weights[c] = make([]float64, dim)
	}

	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, dim)
	}
	gradB := make([]float64, k)
	probs := make([]float64, k)

	for epoch := 0; epoch < p.Epochs; epoch++ {
		for c := 0; c < k; c++ {
			clear(gradW[c])
		}
		clear(gradB)

		for i, x := range xs {
			m.scores(x, probs)
			softmax(probs)
			yi := classIdx[ys[i]]
			for c := 0; c < k; c++ {
				g := probs[c]
				if c == yi {
					g -= 1
				}
				g *= w[i]
				if g == 0 {
					continue
				}
				gradB[c] += g
				row := gradW[c]
				for _, f := range x {
					row[f.Index] += g * f.Value
				}
			}
		}

		for c := 0; c < k; c++ {
			row, grow := m.Weights[c], gradW[c]
			for j := range row {
				row[j] -= p.LearningRate * (grow[j]/total + p.L2*row[j])
			}
			m.Bias[c] -= p.LearningRate * gradB[c] / total
		}
	}
	return m
}

func (m *Model) scores(x sparseVec, out []float64) {
	for c := range m.Classes {
		s := m.Bias[c]
		row := m.Weights[c]
		for _, f := range x {
			if f.Index < len(row) {
				s += row[f.Index] * f.Value
			}
		}
		out[c] = s
	}
}

// Proba returns the posterior probability of each class.
func (m *Model) Proba(x sparseVec) []float64 {
	out := make([]float64, len(m.Classes))
	m.scores(x, out)
	softmax(out)
	return out
}

// Predict returns the most probable class and its probability.
func (m *Model) Predict(x sparseVec) (intent.Label, float64) {
	p := m.Proba(x)
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return m.Classes[best], p[best]
}

func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	max := v[0]
	for _, x := range v[1:] {
		if x > max {
			max = x
		}
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - max)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}

// classesOf returns the distinct labels of ys in intent.All order.
func classesOf(ys []intent.Label) []intent.Label {
	present := make(map[intent.Label]bool)
	for _, y := range ys {
		present[y] = true
	}
	out := make([]intent.Label, 0, len(present))
	for _, l := range intent.All {
		if present[l] {
			out = append(out, l)
			delete(present, l)
		}
	}
	return out
}
