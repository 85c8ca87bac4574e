// Package tfidf implements a bag-of-n-grams TF-IDF vectorizer.
//
// Weights follow the smoothed formulation
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//	w(t, d) = count(t, d) · idf(t), then L2-normalized per document
//
// The vocabulary and IDF table are fixed by Fit; Transform never changes them.
package tfidf

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/cnoc/pkg/cnoc/ingest"
)

// Config controls vocabulary construction.
type Config struct {
	MaxFeatures int
	MinN        int
	MaxN        int
	Stopwords   []string
}

// DefaultConfig keeps 5000 unigram and bigram features.
func DefaultConfig() Config {
	return Config{MaxFeatures: 5000, MinN: 1, MaxN: 2}
}

// Vector is a sparse row with ascending column indices.
type Vector struct {
	Indices []int
	Values  []float64
}

// Vectorizer maps text to TF-IDF vectors over a fixed vocabulary.
type Vectorizer struct {
	terms     []string
	idf       []float64
	index     map[string]int
	minN      int
	maxN      int
	stopwords []string
	analyzer  *ingest.Analyzer
}

// Fit builds the vocabulary and IDF table from docs.
func Fit(docs []string, cfg Config) *Vectorizer {
	v := newVectorizer(nil, nil, cfg.MinN, cfg.MaxN, cfg.Stopwords)

	counter := NewCounter()
	for _, d := range docs {
		counter.AddDocument(v.analyzer.Terms(d))
	}

	v.terms = counter.TopTerms(cfg.MaxFeatures)
	v.idf = make([]float64, len(v.terms))
	n := float64(counter.N)
	for i, t := range v.terms {
		v.idf[i] = math.Log((1+n)/(1+float64(counter.DF[t]))) + 1
	}
	v.buildIndex()
	return v
}

func newVectorizer(terms []string, idf []float64, minN, maxN int, stopwords []string) *Vectorizer {
	if minN <= 0 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	v := &Vectorizer{
		terms:     terms,
		idf:       idf,
		minN:      minN,
		maxN:      maxN,
		stopwords: stopwords,
		analyzer:  ingest.NewAnalyzer(ingest.NewTokenizer(stopwords), minN, maxN),
	}
	v.buildIndex()
	return v
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.terms))
	for i, t := range v.terms {
		v.index[t] = i
	}
}

// Features returns the vocabulary size.
func (v *Vectorizer) Features() int {
	return len(v.terms)
}

// Terms returns the vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns the weight of a vocabulary term.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	i, ok := v.index[term]
	if !ok {
		return 0, false
	}
	return v.idf[i], true
}

// Transform vectorizes one document. Terms outside the vocabulary are ignored;
// a document with no known terms yields an empty vector.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, t := range v.analyzer.Terms(doc) {
		if i, ok := v.index[t]; ok {
			counts[i]++
		}
	}

	vec := Vector{Indices: make([]int, 0, len(counts))}
	for i := range counts {
		vec.Indices = append(vec.Indices, i)
	}
	sort.Ints(vec.Indices)

	vec.Values = make([]float64, len(vec.Indices))
	var norm float64
	for k, i := range vec.Indices {
		w := counts[i] * v.idf[i]
		vec.Values[k] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}

// TransformAll vectorizes docs in order.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, d := range docs {
		out[i] = v.Transform(d)
	}
	return out
}

type vectorizerJSON struct {
	Terms     []string  `json:"terms"`
	IDF       []float64 `json:"idf"`
	MinN      int       `json:"ngram_min"`
	MaxN      int       `json:"ngram_max"`
	Stopwords []string  `json:"stopwords,omitempty"`
}

// MarshalJSON encodes the fitted state.
func (v *Vectorizer) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorizerJSON{Terms: v.terms, IDF: v.idf, MinN: v.minN, MaxN: v.maxN, Stopwords: v.stopwords})
}

// UnmarshalJSON restores a fitted vectorizer.
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	var s vectorizerJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s.Terms) != len(s.IDF) {
		return fmt.Errorf("tfidf: %d terms but %d idf weights", len(s.Terms), len(s.IDF))
	}
	*v = *newVectorizer(s.Terms, s.IDF, s.MinN, s.MaxN, s.Stopwords)
	return nil
}
