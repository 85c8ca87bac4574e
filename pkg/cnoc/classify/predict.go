package classify

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
	"github.com/cognicore/cnoc/pkg/cnoc/rank"
)

// DefaultTopK is the number of predictions returned when k <= 0.
const DefaultTopK = 3

// Prediction is one ranked major-group candidate.
type Prediction struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

func (p Prediction) String() string {
	return fmt.Sprintf("%s (%s) → %.2f%%", p.Code, p.Label, p.Probability*100)
}

// Predict returns the min(k, classes) most probable major groups, highest
// first. Every class is eligible; there is no confidence cutoff.
func (a *Artifact) Predict(text string, k int) []Prediction {
	if k <= 0 {
		k = DefaultTopK
	}
	proba := a.Model.PredictProba(a.Vectorizer.Transform(text))
	top := rank.TopK(rank.Zip(a.Model.Classes, proba), k)

	out := make([]Prediction, len(top))
	for i, s := range top {
		out[i] = Prediction{
			Code:        s.Key,
			Label:       occupation.MajorGroupName(s.Key),
			Probability: s.Score,
		}
	}
	return out
}

// IsExit reports whether a REPL line ends the session.
func IsExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

// REPL reads one query per line from in and writes the top-k predictions to
// out. It returns at end of input or on "exit"/"quit" in any case.
func REPL(a *Artifact, in io.Reader, out io.Writer, k int) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if IsExit(line) {
			break
		}
		WritePredictions(out, a.Predict(line, k))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read query: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

// WritePredictions prints one numbered line per prediction.
func WritePredictions(out io.Writer, preds []Prediction) {
	for i, p := range preds {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p)
	}
}
