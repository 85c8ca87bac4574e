package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func rec(code, title string) occupation.Record {
	return occupation.Record{Serial: "1", Title: title, Code2015: code}
}

func TestParseTables(t *testing.T) {
	f, err := os.Open("testdata/nat_page.html")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := ParseTables(f)
	if err != nil {
		t.Fatalf("ParseTables: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 occupation rows, got %d: %+v", len(records), records)
	}

	first := records[0]
	if first.Serial != "1" || first.Code2015 != "2512.0100" || first.Code2004 != "2131.10" {
		t.Errorf("Unexpected first row: %+v", first)
	}
	if first.Title != "Software   Developer" {
		t.Errorf("Cell text should be trimmed only, got %q", first.Title)
	}
	if first.Family != "Software Developers" {
		t.Errorf("Expected family from 8th cell, got %q", first.Family)
	}
	if records[1].Title != "Programmer, Computer" {
		t.Errorf("Nested markup should be flattened, got %q", records[1].Title)
	}
	if records[2].Title != "Cook" {
		t.Errorf("Rows from the second table should be parsed, got %q", records[2].Title)
	}
}

func TestParseTablesNoTables(t *testing.T) {
	records, err := ParseTables(strings.NewReader("<html><body><p>No results</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no rows, got %d", len(records))
	}
}

func TestIsSerial(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"042", true},
		{"", false},
		{"S.No.", false},
		{"1a", false},
		{"-1", false},
	}
	for _, tt := range tests {
		if got := isSerial(tt.in); got != tt.want {
			t.Errorf("isSerial(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunStopsAtEmptyPage(t *testing.T) {
	var fetched []int
	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		fetched = append(fetched, page)
		if page >= 3 {
			return nil, nil
		}
		return []occupation.Record{rec(fmt.Sprintf("25%02d.01", page), "Title")}, nil
	})

	var sunk []int
	h := New(source, Options{Sink: func(page int, records []occupation.Record) error {
		sunk = append(sunk, page)
		return nil
	}})

	res, err := h.Run(context.Background(), 300)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Stop != StopExhausted {
		t.Errorf("Expected StopExhausted, got %v", res.Stop)
	}
	if len(res.Records) != 3 {
		t.Errorf("Expected 3 records from pages 0-2, got %d", len(res.Records))
	}
	if fmt.Sprint(fetched) != "[0 1 2 3]" {
		t.Errorf("Expected fetches of pages 0-3 only, got %v", fetched)
	}
	if fmt.Sprint(sunk) != "[0 1 2]" {
		t.Errorf("Expected per-page artifacts for pages 0-2, got %v", sunk)
	}
}

func TestRunStopsWhenPagesRepeat(t *testing.T) {
	calls := 0
	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		calls++
		// The listing wraps back to its first page after page 1.
		if page%2 == 0 {
			return []occupation.Record{rec("2512.01", "Software Developer"), rec("2512.02", "Programmer")}, nil
		}
		return []occupation.Record{rec("5120.01", "Cook"), rec("2512.01", "Software Developer")}, nil
	})

	res, err := New(source, Options{}).Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}

	if res.Stop != StopStalled {
		t.Errorf("Expected StopStalled, got %v", res.Stop)
	}
	if calls != 3 {
		t.Errorf("Expected 3 fetches, got %d", calls)
	}
	if len(res.Records) != 3 {
		t.Fatalf("Expected 3 distinct records, got %d", len(res.Records))
	}
	if res.Records[2].Title != "Cook" {
		t.Errorf("Page 1 should only contribute its new row, got %+v", res.Records[2])
	}
}

func TestRunRespectsMaxPages(t *testing.T) {
	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		return []occupation.Record{rec(fmt.Sprintf("9%03d.01", page), "Labourer")}, nil
	})

	res, err := New(source, Options{}).Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stop != StopMaxPages || res.Pages != 5 || len(res.Records) != 5 {
		t.Errorf("Unexpected result: stop=%v pages=%d records=%d", res.Stop, res.Pages, len(res.Records))
	}
}

func TestRunFetchErrorIsFatal(t *testing.T) {
	boom := errors.New("connection reset")
	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		if page == 1 {
			return nil, boom
		}
		return []occupation.Record{rec("2512.01", "Software Developer")}, nil
	})

	var sunk []int
	h := New(source, Options{Sink: func(page int, records []occupation.Record) error {
		sunk = append(sunk, page)
		return nil
	}})

	res, err := h.Run(context.Background(), 10)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected fetch error, got %v", err)
	}
	if len(sunk) != 1 || len(res.Records) != 1 {
		t.Errorf("Page 0 should have been written before the failure, sunk=%v", sunk)
	}
}

func TestRunSleepsBetweenPages(t *testing.T) {
	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		if page == 2 {
			return nil, nil
		}
		return []occupation.Record{rec(fmt.Sprintf("%04d.01", page), "T")}, nil
	})

	h := New(source, Options{Delay: 800 * time.Millisecond})
	sleeps := 0
	h.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}

	if _, err := h.Run(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if sleeps != 2 {
		t.Errorf("Expected a delay before pages 1 and 2, got %d", sleeps)
	}
}

func TestRunPreloadedSeen(t *testing.T) {
	seen := NewSeen()
	seen.Add(occupation.Key{Code: "2512.01", Title: "Software Developer"})

	source := PageSourceFunc(func(ctx context.Context, page int) ([]occupation.Record, error) {
		return []occupation.Record{rec("2512.01", "Software Developer")}, nil
	})

	res, err := New(source, Options{Seen: seen}).Run(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stop != StopStalled || len(res.Records) != 0 {
		t.Errorf("Expected immediate stall, got %v with %d records", res.Stop, len(res.Records))
	}
}

func TestHTTPSource(t *testing.T) {
	page, err := os.ReadFile("testdata/nat_page.html")
	if err != nil {
		t.Fatal(err)
	}

	var gotPage, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Query().Get("field_group_nat_target_id") != "All" {
			t.Errorf("Listing query parameters should be preserved, got %s", r.URL.RawQuery)
		}
		w.Write(page)
	}))
	defer srv.Close()

	src := &HTTPSource{ListingURL: srv.URL + "/dge/nat?field_group_nat_target_id=All", UserAgent: "test-bot/1.0"}
	records, err := src.Page(context.Background(), 7)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if gotPage != "7" {
		t.Errorf("Expected page=7, got %q", gotPage)
	}
	if gotAgent != "test-bot/1.0" {
		t.Errorf("Expected user agent to be sent, got %q", gotAgent)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := &HTTPSource{ListingURL: srv.URL}
	_, err := src.Page(context.Background(), 4)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if statusErr.Page != 4 || statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("Unexpected status error: %+v", statusErr)
	}
}
