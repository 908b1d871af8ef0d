package agent

import (
	"fmt"
	"strings"
)

// Role identifies which part of the panel a profile plays.
type Role string

const (
	RoleAnalyst     Role = "analyst"
	RoleInvestor    Role = "investor"
	RoleSynthesizer Role = "synthesizer"
)

// Profile describes one panel member. Analysts use Focus and Methodology;
// investors use Philosophy, RiskProfile and Quotes.
type Profile struct {
	Name        string   `yaml:"name" json:"name"`
	Role        Role     `yaml:"-" json:"role"`
	Focus       string   `yaml:"focus,omitempty" json:"focus,omitempty"`
	Methodology string   `yaml:"methodology,omitempty" json:"methodology,omitempty"`
	Philosophy  string   `yaml:"philosophy,omitempty" json:"philosophy,omitempty"`
	RiskProfile string   `yaml:"risk_profile,omitempty" json:"risk_profile,omitempty"`
	Quotes      []string `yaml:"quotes,omitempty" json:"quotes,omitempty"`

	// Endpoint is the A2A URL of a remote agent playing this member.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// Template overrides the built-in text/template for the template backend.
	Template string `yaml:"template,omitempty" json:"-"`
}

// Slug returns a lower-case, dash-separated form of the profile name.
func (p Profile) Slug() string {
	return slug(p.Name)
}

func slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

// Backend selects how registry workers produce their text.
type Backend string

const (
	// BackendTemplate renders canned reports locally from the record.
	BackendTemplate Backend = "template"

	// BackendRemote sends every request to the profile's A2A endpoint.
	BackendRemote Backend = "remote"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendTemplate, BackendRemote:
		return b, nil
	case "":
		return BackendTemplate, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want %q or %q)", s, BackendTemplate, BackendRemote)
	}
}
