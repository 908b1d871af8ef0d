package market

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Compile-time interface checks.
var (
	_ orchestrator.DataFetcher = (*StaticFetcher)(nil)
	_ orchestrator.DataFetcher = (*FixtureFetcher)(nil)
)

// StaticFetcher serves records from memory. It is safe for concurrent use
// because it is never mutated after construction.
type StaticFetcher struct {
	records map[string]orchestrator.Record
}

// NewStaticFetcher copies records, normalizing the ticker keys.
func NewStaticFetcher(records map[string]orchestrator.Record) *StaticFetcher {
	f := &StaticFetcher{records: make(map[string]orchestrator.Record, len(records))}
	for k, v := range records {
		f.records[NormalizeTicker(k)] = v.Clone()
	}
	return f
}

// Fetch returns a copy of the record for subject. A record carrying an
// "error" key is reported as a failed fetch.
func (f *StaticFetcher) Fetch(ctx context.Context, subject string) (orchestrator.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := NormalizeTicker(subject)
	rec, ok := f.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, key)
	}
	if msg := rec.String(KeyError); msg != "" {
		return nil, fmt.Errorf("%s: %s", key, msg)
	}
	return enrich(key, rec.Clone()), nil
}

// Tickers returns the tickers the fetcher knows, sorted.
func (f *StaticFetcher) Tickers() []string {
	return slices.Sorted(maps.Keys(f.records))
}
