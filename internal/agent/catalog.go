package agent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the immutable list of panel members, in registry order.
type Catalog struct {
	Analysts    []Profile `yaml:"analysts"`
	Investors   []Profile `yaml:"investors"`
	Synthesizer Profile   `yaml:"synthesizer"`
}

// DefaultCatalog returns the built-in panel: five analysts, five investors
// and an investment committee synthesizer.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("agent: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads and validates a catalog YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes catalog YAML, assigns roles and validates the result.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.Analysts {
		c.Analysts[i].Role = RoleAnalyst
	}
	for i := range c.Investors {
		c.Investors[i].Role = RoleInvestor
	}
	c.Synthesizer.Role = RoleSynthesizer
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the catalog has at least one analyst and investor, a
// named synthesizer, and no duplicate names across roles.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.Analysts) == 0 {
		errs = append(errs, errors.New("no analysts defined"))
	}
	if len(c.Investors) == 0 {
		errs = append(errs, errors.New("no investors defined"))
	}
	if c.Synthesizer.Name == "" {
		errs = append(errs, errors.New("synthesizer has no name"))
	}
	seen := make(map[string]Role)
	for _, p := range c.All() {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s with empty name", p.Role))
			continue
		}
		if prev, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate name %q (%s and %s)", p.Name, prev, p.Role))
			continue
		}
		seen[p.Name] = p.Role
	}
	return errors.Join(errs...)
}

// All returns every profile: analysts, investors, then the synthesizer.
func (c *Catalog) All() []Profile {
	all := slices.Concat(c.Analysts, c.Investors)
	if c.Synthesizer.Name != "" {
		all = append(all, c.Synthesizer)
	}
	return all
}

// Lookup finds a profile by name.
func (c *Catalog) Lookup(name string) (Profile, bool) {
	for _, p := range c.All() {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// WithEndpoints returns a copy of c with endpoints overridden by name.
// Unknown names are an error.
func (c *Catalog) WithEndpoints(endpoints map[string]string) (*Catalog, error) {
	out := &Catalog{
		Analysts:    slices.Clone(c.Analysts),
		Investors:   slices.Clone(c.Investors),
		Synthesizer: c.Synthesizer,
	}
	for name, url := range endpoints {
		if setEndpoint(out.Analysts, name, url) || setEndpoint(out.Investors, name, url) {
			continue
		}
		if out.Synthesizer.Name != name {
			return nil, fmt.Errorf("endpoint for unknown panel member %q", name)
		}
		out.Synthesizer.Endpoint = url
	}
	return out, nil
}

func setEndpoint(profiles []Profile, name, url string) bool {
	for i := range profiles {
		if profiles[i].Name == name {
			profiles[i].Endpoint = url
			return true
		}
	}
	return false
}
