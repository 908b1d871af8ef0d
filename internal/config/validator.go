package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging levels.
func ValidLogLevels() []string { return []string{"debug", "info", "warn", "error"} }

// Validate checks c and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Panel.WorkerTimeout <= 0 {
		add("panel.worker_timeout", c.Panel.WorkerTimeout, "must be positive")
	}
	if c.Panel.Grace < 0 {
		add("panel.grace", c.Panel.Grace, "must not be negative")
	}
	if c.Panel.Parallelism < 1 {
		add("panel.parallelism", c.Panel.Parallelism, "must be at least 1")
	}

	if !slices.Contains([]string{"template", "remote"}, c.Agents.Backend) {
		add("agents.backend", c.Agents.Backend, "must be one of template, remote")
	}
	seen := make(map[string]bool)
	for i, e := range c.Agents.Endpoints {
		field := fmt.Sprintf("agents.endpoints[%d]", i)
		if strings.TrimSpace(e.Name) == "" {
			add(field+".name", e.Name, "must not be empty")
		} else if seen[e.Name] {
			add(field+".name", e.Name, "is listed twice")
		}
		seen[e.Name] = true
		if !isHTTPURL(e.URL) {
			add(field+".url", e.URL, "must be an http(s) URL")
		}
	}

	switch c.Data.Source {
	case SourceFixtures:
	case SourceHTTP:
		if !isHTTPURL(c.Data.QuoteURL) {
			add("data.quote_url", c.Data.QuoteURL, "must be an http(s) URL when data.source is http")
		}
	default:
		add("data.source", c.Data.Source, "must be one of fixtures, http")
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		add("output.dir", c.Output.Dir, "must not be empty")
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains([]string{"console", "json"}, c.Logging.Format) {
		add("logging.format", c.Logging.Format, "must be one of console, json")
	}
	return errs
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
