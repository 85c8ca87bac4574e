// Package normalize turns raw scraped occupation rows into the clean dataset.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

var codePattern = regexp.MustCompile(`^\d{4}\.\d{2,4}$`)

// ValidCode reports whether code has the DDDD.DD to DDDD.DDDD shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Report counts what Normalize did to its input.
type Report struct {
	Input          int
	Dropped        int // missing title or nco_2015
	InvalidSerials int
	Duplicates     int
	MalformedCodes int // kept, see ValidCode
	Output         int
}

// Normalize cleans raw records; see Clean.
func Normalize(records []occupation.Record) []occupation.Record {
	out, _ := Clean(records)
	return out
}

// Clean applies, in order: drop rows without title or nco_2015, coerce the
// serial number, collapse whitespace in text fields, trim codes, and drop
// later duplicates of (nco_2015, title). Codes that fail ValidCode are counted
// but passed through unchanged. The input slice is not modified.
func Clean(records []occupation.Record) ([]occupation.Record, Report) {
	rep := Report{Input: len(records)}

	seen := make(map[occupation.Key]struct{}, len(records))
	out := make([]occupation.Record, 0, len(records))

	for _, r := range records {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Code2015) == "" {
			rep.Dropped++
			continue
		}

		raw := r.Serial
		serial, ok := ParseSerial(raw)
		r.Serial = ""
		if ok {
			r.Serial = strconv.Itoa(serial)
		} else if strings.TrimSpace(raw) != "" {
			rep.InvalidSerials++
		}

		r.Title = CollapseSpace(r.Title)
		r.Division = CollapseSpace(r.Division)
		r.SubDivision = CollapseSpace(r.SubDivision)
		r.Group = CollapseSpace(r.Group)
		r.Family = CollapseSpace(r.Family)

		r.Code2015 = strings.TrimSpace(r.Code2015)
		r.Code2004 = strings.TrimSpace(r.Code2004)

		k := r.Key()
		if _, dup := seen[k]; dup {
			rep.Duplicates++
			continue
		}
		seen[k] = struct{}{}

		if !ValidCode(r.Code2015) {
			rep.MalformedCodes++
		}
		out = append(out, r)
	}

	rep.Output = len(out)
	return out, rep
}

// ParseSerial reads a serial number. Integral decimals such as "12.0" are
// accepted; anything else reports false.
func ParseSerial(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// CollapseSpace applies Unicode NFC, trims the ends and replaces internal
// whitespace runs with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
