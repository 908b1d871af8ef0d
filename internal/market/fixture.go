package market

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// FixtureFetcher serves records loaded from a YAML file of the form
//
//	MSFT:
//	  company_name: Microsoft Corporation
//	  pe_ratio: 35.2
type FixtureFetcher struct {
	*StaticFetcher
	path string
}

// LoadFixtures reads a fixture file.
func LoadFixtures(path string) (*FixtureFetcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	return f, nil
}

// ParseFixtures decodes fixture YAML.
func ParseFixtures(data []byte) (*FixtureFetcher, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("parsing fixtures: no records")
	}
	records := make(map[string]orchestrator.Record, len(raw))
	for ticker, fields := range raw {
		records[ticker] = orchestrator.Record(fields)
	}
	return &FixtureFetcher{StaticFetcher: NewStaticFetcher(records)}, nil
}

// Path returns the file the fixtures were loaded from, if any.
func (f *FixtureFetcher) Path() string { return f.path }

//go:embed sample.yaml
var sampleYAML []byte

// SampleFetcher serves the built-in sample records (MSFT, AAPL, NVDA, KO,
// TSLA).
func SampleFetcher() *FixtureFetcher {
	f, err := ParseFixtures(sampleYAML)
	if err != nil {
		panic("market: embedded sample.yaml: " + err.Error())
	}
	return f
}
