package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
	"github.com/cognicore/cnoc/pkg/cnoc/split"
)

func TestRunWritesThreeSplits(t *testing.T) {
	store := artifact.NewStore(t.TempDir())

	var rows []occupation.TrainingRow
	for i := 0; i < 20; i++ {
		code := "2512.0100"
		if i%2 == 1 {
			code = "8322.0100"
		}
		rows = append(rows, occupation.TrainingRow{Lang: "en", Text: fmt.Sprintf("title %d", i), Code: code})
	}
	if err := store.WriteCSV(artifact.TrainingRows+".csv", occupation.RowTable(rows)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := run(context.Background(), store, split.DefaultOptions(), 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	sizes := map[string]int{artifact.TrainSplit: 16, artifact.ValSplit: 2, artifact.TestSplit: 2}
	total := 0
	for name, want := range sizes {
		table, err := store.ReadCSV(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(table.Rows) != want {
			t.Errorf("%s has %d rows, want %d", name, len(table.Rows), want)
		}
		if table.Column("label_family") >= 0 {
			t.Errorf("%s leaks the family column", name)
		}
		total += len(table.Rows)
	}
	if total != len(rows) {
		t.Errorf("splits hold %d rows, want %d", total, len(rows))
	}
}
