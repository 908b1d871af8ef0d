// Package market supplies the data the panel consults on: per-ticker
// records from fixtures, memory or an HTTP quote service, the static market
// context fragment, and the portfolio of tickers to analyze.
package market
