// Package classify trains and serves the TF-IDF + logistic regression
// baseline that maps occupation text to a two-digit NCO major group.
package classify

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/evaluate"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/model"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
	"github.com/cognicore/cnoc/pkg/cnoc/tfidf"
)

// LabelColumn holds the full occupation code; the label is its first two characters.
const LabelColumn = "nco_2015"

// TextColumns lists accepted text columns in priority order.
var TextColumns = []string{"english_text", "occupation_title", "text", "hi_text", "ta_text"}

// ErrNoTextColumn reports a dataset with none of TextColumns.
var ErrNoTextColumn = errors.New("no text column")

// ResolveTextColumn returns the first TextColumns entry present in header.
func ResolveTextColumn(header []string) (string, error) {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	for _, c := range TextColumns {
		if _, ok := have[c]; ok {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: want one of %s, have %s: %w",
		ErrNoTextColumn, strings.Join(TextColumns, ","), strings.Join(header, ","), internalerr.ErrInvalidConfig)
}

// Options configures training.
type Options struct {
	Vectorizer tfidf.Config
	Model      model.Config
	Logger     *log.Logger
}

// DefaultOptions returns the baseline settings.
func DefaultOptions() Options {
	return Options{Vectorizer: tfidf.DefaultConfig(), Model: model.DefaultConfig()}
}

// Artifact is the fitted vectorizer and classifier pair.
type Artifact struct {
	RunID      string
	TextColumn string
	CreatedAt  time.Time
	Vectorizer *tfidf.Vectorizer
	Model      *model.LogisticRegression
}

// Report summarizes a training run.
type Report struct {
	TextColumn string          `json:"text_column"`
	Classes    int             `json:"classes"`
	Features   int             `json:"features"`
	TrainRows  int             `json:"train_rows"`
	Epochs     int             `json:"epochs"`
	Validation evaluate.Report `json:"validation"`
	Test       evaluate.Report `json:"test"`
}

type dataset struct {
	texts  []string
	labels []string
}

// Train fits the vectorizer on train only, fits the classifier, and evaluates
// on val and test.
func Train(train, val, test artifact.Table, opts Options) (*Artifact, Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	textCol, err := ResolveTextColumn(train.Header)
	if err != nil {
		return nil, Report{}, err
	}

	trainSet, err := extract(train, textCol, "train")
	if err != nil {
		return nil, Report{}, err
	}
	valSet, err := extract(val, textCol, "validation")
	if err != nil {
		return nil, Report{}, err
	}
	testSet, err := extract(test, textCol, "test")
	if err != nil {
		return nil, Report{}, err
	}
	if len(trainSet.texts) == 0 {
		return nil, Report{}, fmt.Errorf("train split is empty: %w", internalerr.ErrInvalidInput)
	}

	vec := tfidf.Fit(trainSet.texts, opts.Vectorizer)
	logger.Printf("vectorizer: %d features from %d rows (text column %q)", vec.Features(), len(trainSet.texts), textCol)

	clf, err := model.Fit(vec.TransformAll(trainSet.texts), trainSet.labels, vec.Features(), opts.Model)
	if err != nil {
		return nil, Report{}, fmt.Errorf("fit classifier: %w", err)
	}
	logger.Printf("classifier: %d classes after %d epochs", len(clf.Classes), clf.Epochs)

	a := &Artifact{
		RunID:      artifact.NewRunID(),
		TextColumn: textCol,
		CreatedAt:  time.Now().UTC(),
		Vectorizer: vec,
		Model:      clf,
	}

	report := Report{
		TextColumn: textCol,
		Classes:    len(clf.Classes),
		Features:   vec.Features(),
		TrainRows:  len(trainSet.texts),
		Epochs:     clf.Epochs,
	}
	if report.Validation, err = a.evaluate(valSet); err != nil {
		return nil, Report{}, err
	}
	if report.Test, err = a.evaluate(testSet); err != nil {
		return nil, Report{}, err
	}
	return a, report, nil
}

func (a *Artifact) evaluate(d dataset) (evaluate.Report, error) {
	pred := make([]string, len(d.texts))
	for i, text := range d.texts {
		pred[i] = a.Model.Predict(a.Vectorizer.Transform(text))
	}
	return evaluate.Compute(d.labels, pred)
}

func extract(t artifact.Table, textCol, split string) (dataset, error) {
	ti, li := t.Column(textCol), t.Column(LabelColumn)
	if len(t.Header) == 0 && len(t.Rows) == 0 {
		return dataset{}, nil
	}
	if ti < 0 {
		return dataset{}, fmt.Errorf("%s split lacks text column %q: %w", split, textCol, internalerr.ErrInvalidConfig)
	}
	if li < 0 {
		return dataset{}, fmt.Errorf("%s split lacks label column %q: %w", split, LabelColumn, internalerr.ErrInvalidConfig)
	}

	d := dataset{
		texts:  make([]string, len(t.Rows)),
		labels: make([]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		if ti < len(row) {
			d.texts[i] = row[ti]
		}
		if li < len(row) {
			d.labels[i] = occupation.MajorGroup(strings.TrimSpace(row[li]))
		}
	}
	return d, nil
}
