// Package evaluate computes per-class classification metrics.
package evaluate

import (
	"fmt"
	"sort"
	"strings"
)

// ClassMetrics holds precision, recall and F1 for one label.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes predictions against ground truth. Labels that are never
// predicted get precision 0, labels never present get recall 0.
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Support     int            `json:"support"`
}

// Compute builds a report. yTrue and yPred must have equal length.
func Compute(yTrue, yPred []string) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("evaluate: %d labels but %d predictions", len(yTrue), len(yPred))
	}

	tp := map[string]int{}
	predicted := map[string]int{}
	actual := map[string]int{}
	correct := 0
	for i := range yTrue {
		actual[yTrue[i]]++
		predicted[yPred[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
			correct++
		}
	}

	labels := make([]string, 0, len(actual)+len(predicted))
	for l := range actual {
		labels = append(labels, l)
	}
	for l := range predicted {
		if _, ok := actual[l]; !ok {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)

	r := Report{Support: len(yTrue)}
	if r.Support > 0 {
		r.Accuracy = float64(correct) / float64(r.Support)
	}
	r.MacroAvg.Label = "macro avg"
	r.WeightedAvg.Label = "weighted avg"

	for _, l := range labels {
		m := ClassMetrics{Label: l, Support: actual[l]}
		m.Precision = ratio(tp[l], predicted[l])
		m.Recall = ratio(tp[l], actual[l])
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision
		r.MacroAvg.Recall += m.Recall
		r.MacroAvg.F1 += m.F1
		w := float64(m.Support)
		r.WeightedAvg.Precision += w * m.Precision
		r.WeightedAvg.Recall += w * m.Recall
		r.WeightedAvg.F1 += w * m.F1
	}

	if n := float64(len(labels)); n > 0 {
		r.MacroAvg.Precision /= n
		r.MacroAvg.Recall /= n
		r.MacroAvg.F1 /= n
	}
	if s := float64(r.Support); s > 0 {
		r.WeightedAvg.Precision /= s
		r.WeightedAvg.Recall /= s
		r.WeightedAvg.F1 /= s
	}
	r.MacroAvg.Support = r.Support
	r.WeightedAvg.Support = r.Support
	return r, nil
}

// Class returns the metrics for label.
func (r Report) Class(label string) (ClassMetrics, bool) {
	for _, m := range r.Classes {
		if m.Label == label {
			return m, true
		}
	}
	return ClassMetrics{}, false
}

// String renders a fixed-width table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		writeRow(&b, m)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Support)
	writeRow(&b, r.MacroAvg)
	writeRow(&b, r.WeightedAvg)
	return b.String()
}

func writeRow(b *strings.Builder, m ClassMetrics) {
	fmt.Fprintf(b, "%14s %10.2f %10.2f %10.2f %10d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
