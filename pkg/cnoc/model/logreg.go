// Package model implements multinomial logistic regression over sparse
// TF-IDF features.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/tfidf"
)

// Config controls training.
type Config struct {
	C            float64 // inverse L2 strength
	MaxIter      int     // epochs
	LearningRate float64
	Tol          float64 // stop when mean loss improves by less than this
	Seed         uint64
}

// DefaultConfig mirrors a C=1, 300 iteration baseline.
func DefaultConfig() Config {
	return Config{C: 1, MaxIter: 300, LearningRate: 0.5, Tol: 1e-5, Seed: 42}
}

// LogisticRegression is a softmax classifier. Weights[k][j] is the weight of
// feature j for Classes[k].
type LogisticRegression struct {
	Classes  []string    `json:"classes"`
	Features int         `json:"features"`
	Weights  [][]float64 `json:"weights"`
	Bias     []float64   `json:"bias"`
	Epochs   int         `json:"epochs"`
}

// Fit trains on rows X with labels y. features is the vectorizer width.
func Fit(X []tfidf.Vector, y []string, features int, cfg Config) (*LogisticRegression, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("model: %d rows but %d labels: %w", len(X), len(y), internalerr.ErrInvalidInput)
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("model: no training rows: %w", internalerr.ErrInvalidInput)
	}
	if cfg.C <= 0 {
		return nil, fmt.Errorf("model: C must be positive: %w", internalerr.ErrInvalidConfig)
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 1
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultConfig().LearningRate
	}

	classes := uniqueSorted(y)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	target := make([]int, len(y))
	for i, label := range y {
		target[i] = classIdx[label]
	}

	m := &LogisticRegression{
		Classes:  classes,
		Features: features,
		Weights:  make([][]float64, len(classes)),
		Bias:     make([]float64, len(classes)),
	}
	for k := range m.Weights {
		m.Weights[k] = make([]float64, features)
	}
	if len(classes) == 1 {
		return m, nil
	}

	n := len(X)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	probs := make([]float64, len(classes))
	prevLoss := math.Inf(1)

	for epoch := 0; epoch < cfg.MaxIter; epoch++ {
		lr := cfg.LearningRate / (1 + 0.01*float64(epoch))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		var loss float64
		for _, i := range order {
			x := X[i]
			if err := m.checkVector(x); err != nil {
				return nil, err
			}
			m.proba(x, probs)
			loss -= math.Log(math.Max(probs[target[i]], 1e-300))
			for k := range probs {
				g := probs[k]
				if k == target[i] {
					g -= 1
				}
				if g == 0 {
					continue
				}
				m.Bias[k] -= lr * g
				w := m.Weights[k]
				for p, j := range x.Indices {
					w[j] -= lr * g * x.Values[p]
				}
			}
		}

		// L2 penalty 1/(2C)·||w||², spread over the n per-sample steps.
		shrink := math.Pow(math.Max(0, 1-lr/(cfg.C*float64(n))), float64(n))
		var penalty float64
		for _, w := range m.Weights {
			for j := range w {
				w[j] *= shrink
				penalty += w[j] * w[j]
			}
		}
		loss = loss/float64(n) + penalty/(2*cfg.C*float64(n))
		m.Epochs = epoch + 1

		if cfg.Tol > 0 && math.Abs(prevLoss-loss) < cfg.Tol {
			break
		}
		prevLoss = loss
	}
	return m, nil
}

// PredictProba returns class probabilities aligned with Classes.
func (m *LogisticRegression) PredictProba(x tfidf.Vector) []float64 {
	out := make([]float64, len(m.Classes))
	if len(m.Classes) == 1 {
		out[0] = 1
		return out
	}
	m.proba(x, out)
	return out
}

// Predict returns the most probable class.
func (m *LogisticRegression) Predict(x tfidf.Vector) string {
	p := m.PredictProba(x)
	best := 0
	for k := range p {
		if p[k] > p[best] {
			best = k
		}
	}
	return m.Classes[best]
}

// Validate checks that the persisted shape is consistent.
func (m *LogisticRegression) Validate() error {
	if len(m.Classes) == 0 {
		return errors.New("model: no classes")
	}
	if len(m.Weights) != len(m.Classes) || len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("model: %d classes but %d weight rows and %d biases", len(m.Classes), len(m.Weights), len(m.Bias))
	}
	for k, w := range m.Weights {
		if len(w) != m.Features {
			return fmt.Errorf("model: class %s has %d weights, want %d", m.Classes[k], len(w), m.Features)
		}
	}
	return nil
}

func (m *LogisticRegression) proba(x tfidf.Vector, out []float64) {
	maxZ := math.Inf(-1)
	for k, w := range m.Weights {
		z := m.Bias[k]
		for p, j := range x.Indices {
			if j < len(w) {
				z += w[j] * x.Values[p]
			}
		}
		out[k] = z
		if z > maxZ {
			maxZ = z
		}
	}
	var sum float64
	for k := range out {
		out[k] = math.Exp(out[k] - maxZ)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
}

func (m *LogisticRegression) checkVector(x tfidf.Vector) error {
	if len(x.Indices) != len(x.Values) {
		return fmt.Errorf("model: malformed vector: %w", internalerr.ErrInvalidInput)
	}
	for _, j := range x.Indices {
		if j < 0 || j >= m.Features {
			return fmt.Errorf("model: feature %d out of range [0,%d): %w", j, m.Features, internalerr.ErrInvalidInput)
		}
	}
	return nil
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
