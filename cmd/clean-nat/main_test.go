package main

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func TestRunCleansRawDataset(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	raw := occupation.RecordTable([]occupation.Record{
		{Serial: "1", Title: "  Software   Developer ", Code2015: " 2512.0100 "},
		{Serial: "2", Title: "Software Developer", Code2015: "2512.0100"},
		{Serial: "x", Title: "", Code2015: "5120.0100"},
		{Serial: "3.0", Title: "Cook", Code2015: "5120.0100"},
	})
	if err := store.WriteCSV(artifact.RawCombined+".csv", raw); err != nil {
		t.Fatalf("seed raw: %v", err)
	}

	if err := run(context.Background(), store); err != nil {
		t.Fatalf("run: %v", err)
	}

	table, m, err := store.ReadTable(context.Background(), artifact.CleanDataset+".db")
	if err != nil {
		t.Fatalf("read clean db: %v", err)
	}
	if m.Stage != "normalize" || m.RunID == "" || m.Rows != 2 {
		t.Errorf("manifest = %+v", m)
	}
	records, err := occupation.RecordsFromTable(table)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	if records[0].Title != "Software Developer" || records[0].Code2015 != "2512.0100" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Serial != "3" {
		t.Errorf("serial = %q, want 3", records[1].Serial)
	}
	if !store.Exists(artifact.CleanDataset + ".csv") {
		t.Error("csv form not written")
	}
}

func TestRunMissingRaw(t *testing.T) {
	err := run(context.Background(), artifact.NewStore(t.TempDir()))
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
