// Package augment expands clean occupation records into multilingual training rows.
package augment

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// DefaultBatchSize bounds how many titles go to the translation service at once.
const DefaultBatchSize = 32

// Translator translates a batch of texts. The result has one entry per input,
// in input order. Implementations must decode deterministically.
type Translator interface {
	Translate(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error) {
	return f(ctx, texts, src, tgt)
}

// Options configures an Augmenter.
type Options struct {
	Source    occupation.Language
	Targets   []occupation.Language
	BatchSize int
	Logger    *log.Logger
}

// Augmenter produces training rows through a Translator.
type Augmenter struct {
	translator Translator
	source     occupation.Language
	targets    []occupation.Language
	batchSize  int
	logger     *log.Logger
}

// New creates an augmenter. Zero options fall back to English source,
// Hindi and Tamil targets and DefaultBatchSize.
func New(t Translator, opts Options) *Augmenter {
	a := &Augmenter{
		translator: t,
		source:     opts.Source,
		targets:    opts.Targets,
		batchSize:  opts.BatchSize,
		logger:     opts.Logger,
	}
	if a.source.Tag == "" {
		a.source = occupation.English
	}
	if a.targets == nil {
		a.targets = []occupation.Language{occupation.Hindi, occupation.Tamil}
	}
	if a.batchSize <= 0 {
		a.batchSize = DefaultBatchSize
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard, "", 0)
	}
	return a
}

// LangStats counts rows emitted and skipped for one target language.
type LangStats struct {
	Lang    string
	Emitted int
	Skipped int
}

// Result holds the generated rows and per-language counts.
type Result struct {
	Rows    []occupation.TrainingRow
	Stats   []LangStats
	Batches int
}

// Augment translates every title into each target language and emits rows.
// A failed batch aborts the whole run.
func (a *Augmenter) Augment(ctx context.Context, records []occupation.Record) (Result, error) {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Title
	}

	var res Result
	translations := make([][]string, len(a.targets))
	for i, tgt := range a.targets {
		a.logger.Printf("Translating %d titles to %s...", len(texts), tgt.Name)
		out, batches, err := a.TranslateAll(ctx, texts, tgt)
		if err != nil {
			return Result{}, err
		}
		translations[i] = out
		res.Batches += batches
	}

	res.Rows, res.Stats = Emit(records, a.source, a.targets, translations)
	return res, nil
}

// TranslateAll translates texts in sequential batches and reassembles the
// output so index i of the result belongs to texts[i].
func (a *Augmenter) TranslateAll(ctx context.Context, texts []string, tgt occupation.Language) ([]string, int, error) {
	out := make([]string, 0, len(texts))
	total := (len(texts) + a.batchSize - 1) / a.batchSize
	batches := 0

	for start := 0; start < len(texts); start += a.batchSize {
		end := min(start+a.batchSize, len(texts))
		batch := texts[start:end]

		got, err := a.translator.Translate(ctx, batch, a.source, tgt)
		if err != nil {
			return nil, batches, fmt.Errorf("translate %s batch %d/%d: %w", tgt.Tag, batches+1, total, err)
		}
		if len(got) != len(batch) {
			return nil, batches, fmt.Errorf("translate %s batch %d/%d: got %d outputs for %d inputs",
				tgt.Tag, batches+1, total, len(got), len(batch))
		}
		out = append(out, got...)
		batches++
		a.logger.Printf("   Batch %d/%d done", batches, total)
	}

	return out, batches, nil
}

// Emit builds training rows from records and their translations, where
// translations[i][j] is targets[i]'s version of records[j].Title. Every record
// yields a source-language row; a target row is added only when its
// translation is non-empty and differs from the source title.
func Emit(records []occupation.Record, source occupation.Language, targets []occupation.Language, translations [][]string) ([]occupation.TrainingRow, []LangStats) {
	stats := make([]LangStats, len(targets))
	for i, t := range targets {
		stats[i].Lang = t.Tag
	}

	rows := make([]occupation.TrainingRow, 0, len(records)*(1+len(targets)))
	for j, r := range records {
		rows = append(rows, occupation.TrainingRow{Lang: source.Tag, Text: r.Title, Code: r.Code2015})
		for i, t := range targets {
			var text string
			if i < len(translations) && j < len(translations[i]) {
				text = strings.TrimSpace(translations[i][j])
			}
			if text == "" || text == r.Title {
				stats[i].Skipped++
				continue
			}
			rows = append(rows, occupation.TrainingRow{Lang: t.Tag, Text: text, Code: r.Code2015})
			stats[i].Emitted++
		}
	}
	return rows, stats
}
