// Package occupation defines the records that flow between pipeline stages.
package occupation

import (
	"fmt"
	"strings"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
)

// RecordColumns is the column order of raw and clean occupation tables.
var RecordColumns = []string{"sno", "title", "nco_2015", "nco_2004", "division", "sub_division", "group", "family"}

// RowColumns is the column order of training row tables.
var RowColumns = []string{"lang", "text", "nco_2015"}

// Record is one occupation row from the NCO listing.
// Serial holds the listing's serial number as text; after normalization it is
// either a canonical integer or empty.
type Record struct {
	Serial      string `json:"sno"`
	Title       string `json:"title"`
	Code2015    string `json:"nco_2015"`
	Code2004    string `json:"nco_2004"`
	Division    string `json:"division"`
	SubDivision string `json:"sub_division"`
	Group       string `json:"group"`
	Family      string `json:"family"`
}

// Key identifies a record for deduplication.
type Key struct {
	Code  string
	Title string
}

// Key returns the (nco_2015, title) identity of the record.
func (r Record) Key() Key {
	return Key{Code: r.Code2015, Title: r.Title}
}

func (r Record) values() []string {
	return []string{r.Serial, r.Title, r.Code2015, r.Code2004, r.Division, r.SubDivision, r.Group, r.Family}
}

// TrainingRow is one language variant of an occupation title.
type TrainingRow struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
	Code string `json:"nco_2015"`
}

// MajorGroup returns the two-character major-group prefix of an NCO code.
func MajorGroup(code string) string {
	if len(code) < 2 {
		return code
	}
	return code[:2]
}

// RecordTable converts records into a table with RecordColumns.
func RecordTable(records []Record) artifact.Table {
	t := artifact.Table{Header: append([]string(nil), RecordColumns...)}
	t.Rows = make([][]string, len(records))
	for i, r := range records {
		t.Rows[i] = r.values()
	}
	return t
}

// RecordsFromTable reads records from a table. Columns are matched by name, so
// extra columns are ignored; title and nco_2015 are required.
func RecordsFromTable(t artifact.Table) ([]Record, error) {
	idx := make([]int, len(RecordColumns))
	for i, name := range RecordColumns {
		idx[i] = t.Column(name)
	}
	if idx[1] < 0 || idx[2] < 0 {
		return nil, fmt.Errorf("record table needs title and nco_2015 columns, have %s: %w",
			strings.Join(t.Header, ","), internalerr.ErrInvalidConfig)
	}

	records := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		get := func(col int) string {
			c := idx[col]
			if c < 0 || c >= len(row) {
				return ""
			}
			return row[c]
		}
		records[i] = Record{
			Serial:      get(0),
			Title:       get(1),
			Code2015:    get(2),
			Code2004:    get(3),
			Division:    get(4),
			SubDivision: get(5),
			Group:       get(6),
			Family:      get(7),
		}
	}
	return records, nil
}

// RowTable converts training rows into a table with RowColumns.
func RowTable(rows []TrainingRow) artifact.Table {
	t := artifact.Table{Header: append([]string(nil), RowColumns...)}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		t.Rows[i] = []string{r.Lang, r.Text, r.Code}
	}
	return t
}

// RowsFromTable reads training rows from a table with RowColumns.
func RowsFromTable(t artifact.Table) ([]TrainingRow, error) {
	lang, text, code := t.Column("lang"), t.Column("text"), t.Column("nco_2015")
	if text < 0 || code < 0 {
		return nil, fmt.Errorf("training table needs text and nco_2015 columns, have %s: %w",
			strings.Join(t.Header, ","), internalerr.ErrInvalidConfig)
	}

	rows := make([]TrainingRow, len(t.Rows))
	for i, row := range t.Rows {
		r := TrainingRow{Text: cell(row, text), Code: cell(row, code)}
		if lang >= 0 {
			r.Lang = cell(row, lang)
		}
		rows[i] = r
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
