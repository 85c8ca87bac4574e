package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/classify"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func trainedStore(t *testing.T) *artifact.Store {
	t.Helper()
	train := occupation.RowTable([]occupation.TrainingRow{
		{Lang: "en", Text: "Software Developer", Code: "2512.0100"},
		{Lang: "en", Text: "Web Developer", Code: "2513.0100"},
		{Lang: "en", Text: "Cook", Code: "5120.0100"},
		{Lang: "en", Text: "Head Cook", Code: "5120.0200"},
		{Lang: "en", Text: "Taxi Driver", Code: "8322.0100"},
		{Lang: "en", Text: "Bus Driver", Code: "8331.0100"},
	})
	held := occupation.RowTable([]occupation.TrainingRow{
		{Lang: "en", Text: "Truck Driver", Code: "8332.0100"},
	})

	a, _, err := classify.Train(train, held, held, classify.DefaultOptions())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	store := artifact.NewStore(t.TempDir())
	if err := classify.Save(store, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	return store
}

func TestRun(t *testing.T) {
	store := trainedStore(t)

	tests := []struct {
		name  string
		query string
		input string
		k     int
		want  []string
		lines int
	}{
		{
			name:  "one-shot query",
			query: "Software Developer",
			k:     2,
			want:  []string{"Input: Software Developer", "1. 25 ("},
			lines: 3,
		},
		{
			name:  "interactive until quit",
			input: "Cook\nQUIT\nTaxi Driver\n",
			k:     1,
			want:  []string{"'exit' or 'quit'", "1. 51 ("},
		},
		{
			name:  "interactive until EOF",
			input: "Bus Driver\n",
			k:     3,
			want:  []string{"1. 83 ("},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			if err := run(store, tt.query, tt.k, strings.NewReader(tt.input), &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			got := out.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			if tt.lines > 0 {
				if n := strings.Count(got, "\n"); n != tt.lines {
					t.Errorf("got %d lines, want %d:\n%s", n, tt.lines, got)
				}
			}
			if strings.Contains(got, "Taxi Driver") {
				t.Errorf("input after quit was read:\n%s", got)
			}
		})
	}
}

func TestRunWithoutModel(t *testing.T) {
	err := run(artifact.NewStore(t.TempDir()), "Cook", 3, strings.NewReader(""), &strings.Builder{})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
