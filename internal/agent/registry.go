package agent

import (
	"fmt"

	"github.com/dusk-indust/finpanel/internal/a2a"
	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Options configures how a Registry builds its workers.
type Options struct {
	// Backend chooses the worker variant. With BackendTemplate, profiles
	// that name an endpoint are still reached remotely.
	Backend Backend

	// Client is used for remote workers. Nil means a default HTTP client.
	Client a2a.Client
}

// Registry holds the panel's workers, built once at start-up.
type Registry struct {
	catalog     *Catalog
	analysts    *orchestrator.WorkerSet
	investors   *orchestrator.WorkerSet
	synthesizer orchestrator.Worker
	workers     map[string]orchestrator.Worker
}

// NewRegistry builds one worker per catalog profile.
func NewRegistry(c *Catalog, opts Options) (*Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if opts.Backend == "" {
		opts.Backend = BackendTemplate
	}
	if opts.Client == nil {
		opts.Client = a2a.NewHTTPClient()
	}

	r := &Registry{catalog: c, workers: make(map[string]orchestrator.Worker)}
	build := func(role string, profiles []Profile) (*orchestrator.WorkerSet, error) {
		members := make([]orchestrator.NamedWorker, 0, len(profiles))
		for _, p := range profiles {
			w, err := r.build(p, opts)
			if err != nil {
				return nil, err
			}
			members = append(members, orchestrator.NamedWorker{Name: orchestrator.WorkerName(p.Name), Worker: w})
		}
		return orchestrator.NewWorkerSet(role, members...)
	}

	var err error
	if r.analysts, err = build(string(RoleAnalyst), c.Analysts); err != nil {
		return nil, err
	}
	if r.investors, err = build(string(RoleInvestor), c.Investors); err != nil {
		return nil, err
	}
	if r.synthesizer, err = r.build(c.Synthesizer, opts); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) build(p Profile, opts Options) (orchestrator.Worker, error) {
	var (
		w   orchestrator.Worker
		err error
	)
	switch {
	case opts.Backend == BackendRemote, p.Endpoint != "":
		w, err = NewRemoteWorker(p, opts.Client)
	case opts.Backend == BackendTemplate:
		w, err = NewTemplateWorker(p)
	default:
		err = fmt.Errorf("unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	r.workers[p.Name] = w
	return w, nil
}

// Analysts returns the analyst workers in catalog order.
func (r *Registry) Analysts() *orchestrator.WorkerSet { return r.analysts }

// Investors returns the investor workers in catalog order.
func (r *Registry) Investors() *orchestrator.WorkerSet { return r.investors }

// Synthesizer returns the synthesis worker.
func (r *Registry) Synthesizer() orchestrator.Worker { return r.synthesizer }

// Catalog returns the catalog the registry was built from.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Worker returns the worker and profile for a panel member by name.
func (r *Registry) Worker(name string) (orchestrator.Worker, Profile, bool) {
	p, ok := r.catalog.Lookup(name)
	if !ok {
		return nil, Profile{}, false
	}
	return r.workers[name], p, true
}
