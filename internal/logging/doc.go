// Package logging provides the structured logger used across finpanel.
// Components depend on the small Logger interface; the default backend is
// zerolog, either as JSON lines or as a human-readable console writer.
package logging
