// Package harvest scrapes the paginated NCO listing into occupation records.
//
// The page loop stops at the first empty page, at the first page whose rows
// were all seen before (the listing wraps around instead of ending), or after
// maxPages pages, whichever comes first.
package harvest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// StopReason explains why a harvest ended.
type StopReason int

const (
	StopMaxPages StopReason = iota
	StopExhausted
	StopStalled
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "empty page"
	case StopStalled:
		return "no new rows"
	default:
		return "page limit"
	}
}

// Seen accumulates the identity keys of every row harvested so far.
type Seen struct {
	keys map[occupation.Key]struct{}
}

// NewSeen creates an empty accumulator.
func NewSeen() *Seen {
	return &Seen{keys: make(map[occupation.Key]struct{})}
}

// Has reports whether k was added.
func (s *Seen) Has(k occupation.Key) bool {
	_, ok := s.keys[k]
	return ok
}

// Add records k.
func (s *Seen) Add(k occupation.Key) {
	s.keys[k] = struct{}{}
}

// Len returns the number of distinct keys.
func (s *Seen) Len() int {
	return len(s.keys)
}

// Unseen returns the records whose keys have not been added, in input order.
func (s *Seen) Unseen(records []occupation.Record) []occupation.Record {
	var out []occupation.Record
	for _, r := range records {
		if !s.Has(r.Key()) {
			out = append(out, r)
		}
	}
	return out
}

// PageSink persists the new rows of one page.
type PageSink func(page int, records []occupation.Record) error

// Options configures a Harvester.
type Options struct {
	// Sink receives each page's new rows before the loop moves on. Optional.
	Sink PageSink
	// Delay is the politeness pause between page fetches.
	Delay time.Duration
	// Seen preloads keys from an earlier run. Optional.
	Seen   *Seen
	Logger *log.Logger
}

// Harvester walks the listing pages of a PageSource.
type Harvester struct {
	source PageSource
	sink   PageSink
	delay  time.Duration
	seen   *Seen
	logger *log.Logger
	sleep  func(context.Context, time.Duration) error
}

// New creates a harvester over source.
func New(source PageSource, opts Options) *Harvester {
	h := &Harvester{
		source: source,
		sink:   opts.Sink,
		delay:  opts.Delay,
		seen:   opts.Seen,
		logger: opts.Logger,
		sleep:  sleepContext,
	}
	if h.seen == nil {
		h.seen = NewSeen()
	}
	if h.logger == nil {
		h.logger = log.New(io.Discard, "", 0)
	}
	return h
}

// Result is the outcome of a harvest.
type Result struct {
	Records []occupation.Record
	// Pages is the number of pages fetched, including the page that stopped the loop.
	Pages int
	Stop  StopReason
}

// Run fetches pages 0..maxPages-1 and returns the combined new rows.
// Any fetch error aborts the run; pages already handed to the sink stay written.
func (h *Harvester) Run(ctx context.Context, maxPages int) (Result, error) {
	res := Result{Stop: StopMaxPages}

	for p := 0; p < maxPages; p++ {
		if p > 0 && h.delay > 0 {
			if err := h.sleep(ctx, h.delay); err != nil {
				return res, err
			}
		}

		candidates, err := h.source.Page(ctx, p)
		if err != nil {
			return res, err
		}
		res.Pages++

		if len(candidates) == 0 {
			h.logger.Printf("No rows found on page %d, stopping.", p)
			res.Stop = StopExhausted
			return res, nil
		}

		fresh := h.seen.Unseen(candidates)
		if len(fresh) == 0 {
			h.logger.Printf("All %d rows on page %d were duplicates, stopping.", len(candidates), p)
			res.Stop = StopStalled
			return res, nil
		}

		for _, r := range fresh {
			h.seen.Add(r.Key())
		}
		res.Records = append(res.Records, fresh...)

		if h.sink != nil {
			if err := h.sink(p, fresh); err != nil {
				return res, fmt.Errorf("save page %d: %w", p, err)
			}
		}
		h.logger.Printf("Page %d: %d new rows (%d total)", p, len(fresh), len(res.Records))
	}

	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
