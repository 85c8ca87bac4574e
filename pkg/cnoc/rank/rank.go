// Package rank orders scored candidates.
package rank

import "sort"

// Scored pairs a candidate key with its score.
type Scored struct {
	Key   string
	Score float64
}

// TopK returns the k highest scores in descending order. Equal scores are
// ordered by key. k <= 0 or k > len(items) returns every item.
func TopK(items []Scored, k int) []Scored {
	out := append([]Scored(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// Zip pairs keys with scores by position.
func Zip(keys []string, scores []float64) []Scored {
	n := min(len(keys), len(scores))
	out := make([]Scored, n)
	for i := 0; i < n; i++ {
		out[i] = Scored{Key: keys[i], Score: scores[i]}
	}
	return out
}
