// Package artifact persists the tables and models exchanged between pipeline
// stages. Every artifact lives at a well-known path under a data root and is
// written atomically: a stage that fails leaves the previous artifact in place.
package artifact

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
)

// Well-known artifact names, relative to the data root.
const (
	RawCombined  = "raw/nat_all"
	CleanDataset = "interim/nat_clean"
	TrainingRows = "processed/train_rows"
	TrainSplit   = "processed/train.csv"
	ValSplit     = "processed/val.csv"
	TestSplit    = "processed/test.csv"
	Vectorizer   = "models/tfidf_vectorizer.json"
	Classifier   = "models/tfidf_logreg.json"
	MetricsDir   = "metrics"
)

// PageName returns the per-page artifact written by the harvester.
func PageName(page int) string {
	return fmt.Sprintf("raw/nat_page_%03d.csv", page)
}

// Table is a header plus string rows, the shape shared by CSV and SQLite artifacts.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of a header name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Store reads and writes artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. Directories are created on write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data root.
func (s *Store) Root() string {
	return s.root
}

// Path resolves an artifact name to a file path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Exists reports whether the named artifact is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// WriteCSV writes a table as CSV with a header row.
func (s *Store) WriteCSV(name string, t Table) error {
	return writeAtomic(s.Path(name), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

// ReadCSV reads a CSV artifact. The first row is the header; short rows are
// padded to the header width.
func (s *Store) ReadCSV(name string) (Table, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return Table{}, notFound(name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(all) == 0 {
		return Table{}, fmt.Errorf("%s has no header: %w", name, internalerr.ErrInvalidInput)
	}

	header := all[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}
	rows := all[1:]
	for i, row := range rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows[i] = row
	}
	return Table{Header: header, Rows: rows}, nil
}

// WriteJSON writes v as indented JSON.
func (s *Store) WriteJSON(name string, v any) error {
	return writeAtomic(s.Path(name), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// ReadJSON decodes the named JSON artifact into v.
func (s *Store) ReadJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return notFound(name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func notFound(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("artifact %s: %w", name, internalerr.ErrNotFound)
	}
	return fmt.Errorf("open %s: %w", name, err)
}

// writeAtomic writes to a temp file beside path and renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %v: %w", dir, err, internalerr.ErrStoreUnavailable)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
