package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dusk-indust/finpanel/internal/a2a"
)

// DefaultProbeTimeout bounds each agent card request.
const DefaultProbeTimeout = 2 * time.Second

// ProbeResult reports whether a remote panel member answered discovery.
type ProbeResult struct {
	Name     string
	Endpoint string
	Card     *a2a.AgentCard
	Err      error
}

// OK reports whether the agent answered with a card.
func (r ProbeResult) OK() bool { return r.Err == nil && r.Card != nil }

// Probe concurrently fetches the agent card of every profile that names an
// endpoint. Results keep catalog order; profiles without endpoints are
// skipped.
func Probe(ctx context.Context, client a2a.Client, profiles []Profile, timeout time.Duration) []ProbeResult {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	var results []ProbeResult
	for _, p := range profiles {
		if p.Endpoint != "" {
			results = append(results, ProbeResult{Name: p.Name, Endpoint: p.Endpoint})
		}
	}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(res *ProbeResult) {
			defer wg.Done()
			res.Card, res.Err = probeOne(ctx, client, res.Endpoint, timeout)
		}(&results[i])
	}
	wg.Wait()
	return results
}

func probeOne(ctx context.Context, client a2a.Client, endpoint string, timeout time.Duration) (card *a2a.AgentCard, err error) {
	defer func() {
		if r := recover(); r != nil {
			card, err = nil, fmt.Errorf("probe %s panicked: %v", endpoint, r)
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.DiscoverAgent(probeCtx, endpoint)
}
