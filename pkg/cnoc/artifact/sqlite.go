package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
)

// Manifest describes the run that produced a binary table.
type Manifest struct {
	RunID     string
	Stage     string
	Rows      int
	CreatedAt time.Time
}

const manifestSchema = `
CREATE TABLE manifest (
	run_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
`

// WriteTable writes t as a SQLite database at name. Columns are stored as TEXT
// in header order inside a single "records" table, with a one-row manifest.
func (s *Store) WriteTable(ctx context.Context, name string, t Table, m Manifest) error {
	path := s.Path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %v: %w", dir, err, internalerr.ErrStoreUnavailable)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	db, err := sql.Open("sqlite", tmpName)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if err := fillTable(ctx, db, t, m); err != nil {
		db.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := db.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func fillTable(ctx context.Context, db *sql.DB, t Table, m Manifest) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("table has no columns: %w", internalerr.ErrInvalidInput)
	}

	cols := make([]string, len(t.Header))
	marks := make([]string, len(t.Header))
	for i, h := range t.Header {
		cols[i] = quoteIdent(h) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE records ("+strings.Join(cols, ", ")+")"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, manifestSchema); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Header))
	for _, row := range t.Rows {
		for i := range args {
			args[i] = ""
			if i < len(row) {
				args[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO manifest (run_id, stage, row_count, created_at) VALUES (?, ?, ?, ?)",
		m.RunID, m.Stage, len(t.Rows), created.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ReadTable reads a SQLite table artifact written by WriteTable.
func (s *Store) ReadTable(ctx context.Context, name string) (Table, Manifest, error) {
	path := s.Path(name)
	if _, err := os.Stat(path); err != nil {
		return Table{}, Manifest{}, notFound(name, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Table{}, Manifest{}, fmt.Errorf("open %s: %v: %w", name, err, internalerr.ErrStoreUnavailable)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM records ORDER BY rowid")
	if err != nil {
		return Table{}, Manifest{}, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return Table{}, Manifest{}, err
	}

	t := Table{Header: header}
	for rows.Next() {
		vals := make([]sql.NullString, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, Manifest{}, err
		}
		row := make([]string, len(header))
		for i, v := range vals {
			row[i] = v.String
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, Manifest{}, err
	}

	var m Manifest
	var created string
	err = db.QueryRowContext(ctx, "SELECT run_id, stage, row_count, created_at FROM manifest LIMIT 1").
		Scan(&m.RunID, &m.Stage, &m.Rows, &created)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Table{}, Manifest{}, fmt.Errorf("read manifest %s: %w", name, err)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, created)

	return t, m, nil
}

// Save writes a dataset in both exchange formats: base.csv and base.db.
func (s *Store) Save(ctx context.Context, base string, t Table, m Manifest) error {
	if err := s.WriteCSV(base+".csv", t); err != nil {
		return err
	}
	return s.WriteTable(ctx, base+".db", t, m)
}

// Load reads a dataset, preferring the binary form and falling back to CSV.
func (s *Store) Load(ctx context.Context, base string) (Table, error) {
	t, _, err := s.ReadTable(ctx, base+".db")
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, internalerr.ErrNotFound) {
		return Table{}, err
	}
	return s.ReadCSV(base + ".csv")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
