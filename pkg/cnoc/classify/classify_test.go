package classify

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func table(header []string, rows ...[]string) artifact.Table {
	return artifact.Table{Header: header, Rows: rows}
}

var rowHeader = []string{"lang", "text", "nco_2015"}

func trainTable() artifact.Table {
	return table(rowHeader,
		[]string{"en", "Software Developer", "2512.0100"},
		[]string{"en", "Web Developer", "2513.0100"},
		[]string{"en", "Computer Programmer", "2514.0200"},
		[]string{"en", "Cook", "5120.0100"},
		[]string{"en", "Head Cook", "5120.0200"},
		[]string{"en", "Chef", "5120.0300"},
		[]string{"en", "Taxi Driver", "8322.0100"},
		[]string{"en", "Bus Driver", "8331.0100"},
		[]string{"en", "Truck Driver", "8332.0100"},
	)
}

func heldOut() artifact.Table {
	return table(rowHeader,
		[]string{"en", "Application Developer", "2512.0200"},
		[]string{"en", "Lorry Driver", "8332.0200"},
	)
}

func trained(t *testing.T) (*Artifact, Report) {
	t.Helper()
	a, r, err := Train(trainTable(), heldOut(), heldOut(), DefaultOptions())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return a, r
}

func TestResolveTextColumn(t *testing.T) {
	tests := []struct {
		header []string
		want   string
	}{
		{[]string{"lang", "text", "nco_2015"}, "text"},
		{[]string{"ta_text", "occupation_title", "nco_2015"}, "occupation_title"},
		{[]string{"hi_text", "english_text", "text"}, "english_text"},
		{[]string{"ta_text"}, "ta_text"},
	}
	for _, tt := range tests {
		got, err := ResolveTextColumn(tt.header)
		if err != nil {
			t.Fatalf("%v: %v", tt.header, err)
		}
		if got != tt.want {
			t.Errorf("ResolveTextColumn(%v) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestResolveTextColumnMissing(t *testing.T) {
	_, err := ResolveTextColumn([]string{"title", "nco_2015"})
	if !errors.Is(err, ErrNoTextColumn) || !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrNoTextColumn and ErrInvalidConfig", err)
	}
}

func TestTrainRejectsMissingColumns(t *testing.T) {
	noText := table([]string{"title", "nco_2015"}, []string{"Cook", "5120"})
	if _, _, err := Train(noText, heldOut(), heldOut(), DefaultOptions()); !errors.Is(err, ErrNoTextColumn) {
		t.Errorf("missing text column: err = %v", err)
	}

	noLabel := table([]string{"text"}, []string{"Cook"})
	if _, _, err := Train(noLabel, heldOut(), heldOut(), DefaultOptions()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("missing label column: err = %v", err)
	}
}

func TestTrainReport(t *testing.T) {
	a, r := trained(t)
	if r.TextColumn != "text" || a.TextColumn != "text" {
		t.Errorf("text column = %q", r.TextColumn)
	}
	if r.Classes != 3 {
		t.Errorf("classes = %d, want 3", r.Classes)
	}
	if r.TrainRows != 9 {
		t.Errorf("train rows = %d, want 9", r.TrainRows)
	}
	if r.Validation.Support != 2 || r.Test.Support != 2 {
		t.Errorf("support val=%d test=%d, want 2", r.Validation.Support, r.Test.Support)
	}
	if r.Validation.Accuracy != 1 {
		t.Errorf("validation accuracy = %f, want 1\n%s", r.Validation.Accuracy, r.Validation)
	}
	if a.RunID == "" {
		t.Error("artifact has no run id")
	}
}

func TestVectorizerFitOnTrainOnly(t *testing.T) {
	a, _ := trained(t)
	for _, term := range a.Vectorizer.Terms() {
		if term == "lorry" || term == "application" {
			t.Errorf("held-out term %q leaked into vocabulary", term)
		}
	}
}

func TestPredictSoftwareDeveloper(t *testing.T) {
	a, _ := trained(t)
	preds := a.Predict("Software Developer", 3)
	if len(preds) != 3 {
		t.Fatalf("got %d predictions, want 3", len(preds))
	}
	if preds[0].Code != "25" {
		t.Errorf("top-1 = %s, want 25", preds[0].Code)
	}
	if preds[0].Label != occupation.MajorGroupName("25") {
		t.Errorf("top-1 label = %q", preds[0].Label)
	}
	for i, p := range preds {
		if p.Probability < 0 || p.Probability > 1 {
			t.Errorf("probability %f out of range", p.Probability)
		}
		if i > 0 && p.Probability > preds[i-1].Probability {
			t.Errorf("predictions not sorted: %v", preds)
		}
	}
}

func TestPredictLengthIsMinOfKAndClasses(t *testing.T) {
	a, _ := trained(t)
	tests := []struct{ k, want int }{{1, 1}, {2, 2}, {3, 3}, {10, 3}, {0, 3}}
	for _, tt := range tests {
		if got := len(a.Predict("driver", tt.k)); got != tt.want {
			t.Errorf("k=%d: %d predictions, want %d", tt.k, got, tt.want)
		}
	}
}

func TestPredictUnknownText(t *testing.T) {
	a, _ := trained(t)
	preds := a.Predict("zzzz qqqq", 3)
	var sum float64
	for _, p := range preds {
		sum += p.Probability
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("all classes returned but probabilities sum to %f", sum)
	}
}

func TestSaveLoad(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	a, _ := trained(t)
	if err := Save(store, a); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RunID != a.RunID || loaded.TextColumn != a.TextColumn {
		t.Errorf("loaded %s/%s, want %s/%s", loaded.RunID, loaded.TextColumn, a.RunID, a.TextColumn)
	}

	want := a.Predict("Bus Driver", 3)
	got := loaded.Predict("Bus Driver", 3)
	for i := range want {
		if got[i].Code != want[i].Code || math.Abs(got[i].Probability-want[i].Probability) > 1e-12 {
			t.Errorf("prediction %d: %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadMissing(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	if _, err := Load(store); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadMismatchedPair(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	first, _ := trained(t)
	if err := Save(store, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, _ := trained(t)
	if err := store.WriteJSON(artifact.Classifier, classifierFile{RunID: second.RunID, Model: second.Model}); err != nil {
		t.Fatalf("overwrite classifier: %v", err)
	}

	if _, err := Load(store); !errors.Is(err, internalerr.ErrArtifactMismatch) {
		t.Errorf("err = %v, want ErrArtifactMismatch", err)
	}
}

func TestREPL(t *testing.T) {
	a, _ := trained(t)
	in := strings.NewReader("Software Developer\n\n  QUIT \nCook\n")
	var out strings.Builder
	if err := REPL(a, in, &out, 2); err != nil {
		t.Fatalf("repl: %v", err)
	}
	s := out.String()
	if n := strings.Count(s, "  1. "); n != 1 {
		t.Errorf("answered %d queries, want 1:\n%s", n, s)
	}
	if !strings.Contains(s, "  2. ") || strings.Contains(s, "  3. ") {
		t.Errorf("expected exactly two predictions:\n%s", s)
	}
	if !strings.Contains(s, "25 (") {
		t.Errorf("missing major group 25:\n%s", s)
	}
}

func TestREPLStopsAtEOF(t *testing.T) {
	a, _ := trained(t)
	var out strings.Builder
	if err := REPL(a, strings.NewReader("Bus Driver"), &out, 1); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.Contains(out.String(), "83 (Drivers & Mobile Plant Operators)") {
		t.Errorf("missing prediction:\n%s", out.String())
	}
}

func TestIsExit(t *testing.T) {
	for _, s := range []string{"exit", "EXIT", " Quit ", "quit"} {
		if !IsExit(s) {
			t.Errorf("IsExit(%q) = false", s)
		}
	}
	for _, s := range []string{"", "exits", "q", "software"} {
		if IsExit(s) {
			t.Errorf("IsExit(%q) = true", s)
		}
	}
}
