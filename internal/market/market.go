package market

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// DefaultContext is the market fragment handed to investors and the
// synthesizer when no other context is configured.
const DefaultContext = `Current market indicators:
- S&P 500: Up 0.8% for the week
- Volatility Index (VIX): 18.5 (moderate volatility)
- 10-Year Treasury Yield: 4.3%
- Federal Reserve Stance: Maintaining current interest rates with a neutral outlook
- Economic Growth: Moderate GDP growth of 2.3% annually
- Inflation: 3.2% annually, slightly above target
- Unemployment Rate: 3.9%, relatively low
- Consumer Sentiment: Slightly positive`

// Record keys with special meaning to the fetchers.
const (
	KeyTicker      = "ticker"
	KeyError       = "error"
	KeyRecentTrend = "recent_trend"
	KeyChange30d   = "change_30d"
)

// ErrUnknownSubject is wrapped by fetchers that have no record for a ticker.
var ErrUnknownSubject = errors.New("unknown subject")

// ErrInvalidTicker is wrapped by CheckTickers for symbols outside the ticker
// charset.
var ErrInvalidTicker = errors.New("invalid ticker")

// tickerPattern admits exchange symbols such as BRK-B, ^GSPC, EURUSD=X and
// RDS.A. Tickers also name output files, so separators never match.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.^=-]{1,20}$`)

// ValidTicker reports whether s, already normalized, is a ticker symbol.
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(s) && !strings.Contains(s, "..")
}

// CheckTickers returns an error naming every symbol in tickers that is not
// a valid ticker.
func CheckTickers(tickers []string) error {
	var bad []string
	for _, t := range tickers {
		if !ValidTicker(t) {
			bad = append(bad, fmt.Sprintf("%q", t))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTicker, strings.Join(bad, ", "))
	}
	return nil
}

// TrendLabel classifies a 30 day percentage price change.
func TrendLabel(pct float64) string {
	switch {
	case pct > 5:
		return "Strong Uptrend"
	case pct > 2:
		return "Moderate Uptrend"
	case pct > -2:
		return "Sideways"
	case pct > -5:
		return "Moderate Downtrend"
	default:
		return "Strong Downtrend"
	}
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// enrich fills derived keys on a freshly fetched record: the ticker itself
// and, when only the raw 30 day change is known, the trend label.
func enrich(subject string, rec orchestrator.Record) orchestrator.Record {
	if rec == nil {
		rec = orchestrator.Record{}
	}
	if rec.String(KeyTicker) == "" {
		rec[KeyTicker] = subject
	}
	if _, ok := rec[KeyRecentTrend]; !ok {
		if _, has := rec[KeyChange30d]; has {
			rec[KeyRecentTrend] = TrendLabel(rec.Float(KeyChange30d))
		}
	}
	return rec
}
