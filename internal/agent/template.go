package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Compile-time interface check.
var _ orchestrator.Worker = (*TemplateWorker)(nil)

// TemplateWorker renders a canned, deterministic report for its profile from
// the request alone. It needs no network and is the default backend.
type TemplateWorker struct {
	profile Profile
	tmpl    *template.Template
}

// NewTemplateWorker parses the profile's template, or the built-in one for
// its role.
func NewTemplateWorker(p Profile) (*TemplateWorker, error) {
	text := p.Template
	if text == "" {
		text = defaultTemplate(p.Role)
	}
	tmpl, err := template.New(p.Slug()).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("template for %s: %w", p.Name, err)
	}
	return &TemplateWorker{profile: p, tmpl: tmpl}, nil
}

// Invoke renders the report.
func (w *TemplateWorker) Invoke(ctx context.Context, req orchestrator.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := w.tmpl.Execute(&b, newView(w.profile, req)); err != nil {
		return "", fmt.Errorf("render %s: %w", w.profile.Name, err)
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

// view is the data handed to templates.
type view struct {
	Profile  Profile
	Subject  string
	Company  string
	Sector   string
	Industry string
	Trend    string

	Price         float64
	MarketCap     float64
	PE            float64
	ForwardPE     float64
	EPS           float64
	Beta          float64
	DividendYield float64
	RevenueGrowth float64
	ProfitMargin  float64
	ROE           float64
	DebtToEquity  float64
	High          float64
	Low           float64
	Change        float64

	Quote              string
	MarketContext      string
	UnavailableReports int
	Tally              Tally
}

func newView(p Profile, req orchestrator.Request) view {
	r := req.Record
	v := view{
		Profile:       p,
		Subject:       req.Subject,
		Company:       orDefault(r.String("company_name"), req.Subject),
		Sector:        orDefault(r.String("sector"), "Unknown"),
		Industry:      orDefault(r.String("industry"), "Unknown"),
		Trend:         orDefault(r.String("recent_trend"), "Unknown"),
		Price:         r.Float("current_price"),
		MarketCap:     r.Float("market_cap"),
		PE:            r.Float("pe_ratio"),
		ForwardPE:     r.Float("forward_pe"),
		EPS:           r.Float("eps"),
		Beta:          r.Float("beta"),
		DividendYield: r.Float("dividend_yield") * 100,
		RevenueGrowth: r.Float("revenue_growth"),
		ProfitMargin:  r.Float("profit_margin"),
		ROE:           r.Float("return_on_equity"),
		DebtToEquity:  r.Float("debt_to_equity"),
		High:          r.Float("52w_high"),
		Low:           r.Float("52w_low"),
		Change:        r.Float("52w_change"),
		MarketContext: req.MarketContext,

		UnavailableReports: strings.Count(req.AnalystReports, orchestrator.ReportPlaceholder),
		Tally:              TallyOpinions(req.Opinions),
	}
	if len(p.Quotes) > 0 {
		v.Quote = p.Quotes[0]
	}
	return v
}

// Stance is the recommendation an investor profile derives from the view.
// Conservative profiles also require modest leverage; aggressive ones buy
// strong growth at any multiple.
func (v view) Stance() string {
	risk := strings.ToLower(v.Profile.RiskProfile)
	switch {
	case strings.Contains(risk, "aggressive") && v.RevenueGrowth > 20:
		return "BUY"
	case strings.Contains(risk, "contrarian") || strings.Contains(risk, "against market"):
		if v.PE > 25 || v.Change > 30 {
			return "SELL"
		}
		if v.Change < -20 {
			return "BUY"
		}
	}
	buy := v.PE > 0 && v.PE < 20 && v.RevenueGrowth > 10 && v.ProfitMargin > 15
	if strings.Contains(risk, "conservative") {
		buy = buy && v.DebtToEquity < 1
	}
	switch {
	case buy:
		return "BUY"
	case v.PE > 40 || v.ProfitMargin < 0:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Tally counts the recommendations found in a rendered opinion stage.
type Tally struct {
	Buy         int
	Hold        int
	Sell        int
	Unavailable int
}

var recommendationRe = regexp.MustCompile(`\*\*Recommendation\*\*:\s*(BUY|HOLD|SELL)`)

// TallyOpinions counts "**Recommendation**: X" lines and unavailable
// opinion placeholders in text.
func TallyOpinions(text string) Tally {
	var t Tally
	for _, m := range recommendationRe.FindAllStringSubmatch(text, -1) {
		switch m[1] {
		case "BUY":
			t.Buy++
		case "HOLD":
			t.Hold++
		case "SELL":
			t.Sell++
		}
	}
	t.Unavailable = strings.Count(text, orchestrator.OpinionPlaceholder)
	return t
}

// Position returns the plurality recommendation; ties and empty tallies are
// HOLD.
func (t Tally) Position() string {
	switch {
	case t.Buy > t.Hold && t.Buy > t.Sell:
		return "BUY"
	case t.Sell > t.Hold && t.Sell > t.Buy:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Votes returns the number of opinions that stated a recommendation.
func (t Tally) Votes() int { return t.Buy + t.Hold + t.Sell }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var templateFuncs = template.FuncMap{
	"money": func(f float64) string { return fmt.Sprintf("$%.2f", f) },
	"pct":   func(f float64) string { return fmt.Sprintf("%+.1f%%", f) },
	"f1":    func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"f2":    func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"lower": strings.ToLower,
	"capital": func(f float64) string {
		switch {
		case f >= 1e12:
			return fmt.Sprintf("$%.2fT", f/1e12)
		case f >= 1e9:
			return fmt.Sprintf("$%.1fB", f/1e9)
		default:
			return fmt.Sprintf("$%.0fM", f/1e6)
		}
	},
	"valuation": func(pe float64) string {
		switch {
		case pe <= 0:
			return "Not Meaningful"
		case pe < 15:
			return "Undervalued"
		case pe < 25:
			return "Fairly Valued"
		case pe < 40:
			return "Premium Valuation"
		default:
			return "Extended Valuation"
		}
	},
	"growth": func(g float64) string {
		switch {
		case g > 15:
			return "High Growth"
		case g > 5:
			return "Moderate Growth"
		case g > 0:
			return "Low Growth"
		default:
			return "Declining"
		}
	},
	"profitability": func(m float64) string {
		switch {
		case m > 20:
			return "Excellent"
		case m > 10:
			return "Strong"
		case m > 5:
			return "Moderate"
		default:
			return "Weak"
		}
	},
	"leverage": func(d float64) string {
		switch {
		case d < 0.5:
			return "Conservative"
		case d < 1:
			return "Moderate"
		case d < 2:
			return "Elevated"
		default:
			return "High"
		}
	},
	"momentum": func(change float64) string {
		switch {
		case change > 10:
			return "Bullish"
		case change > -5:
			return "Neutral"
		default:
			return "Bearish"
		}
	},
	"volatility": func(beta float64) string {
		switch {
		case beta > 1.5:
			return "High"
		case beta > 1:
			return "Medium"
		default:
			return "Low"
		}
	},
}

func defaultTemplate(role Role) string {
	switch role {
	case RoleAnalyst:
		return analystTemplate
	case RoleInvestor:
		return investorTemplate
	default:
		return synthesisTemplate
	}
}

const analystTemplate = `# {{.Profile.Name}}: {{.Company}} ({{.Subject}})

## Focus
{{.Profile.Focus}}

## Key Metrics
- **Current Price**: {{money .Price}}
- **Market Cap**: {{capital .MarketCap}}
- **Sector/Industry**: {{.Sector}} / {{.Industry}}
- **52-Week Range**: {{money .Low}} - {{money .High}}
- **52-Week Change**: {{pct .Change}}
- **Recent Trend**: {{.Trend}}

## Assessment
- **Valuation**: {{valuation .PE}} (P/E {{f1 .PE}}x, forward {{f1 .ForwardPE}}x)
- **Growth**: {{growth .RevenueGrowth}} ({{pct .RevenueGrowth}} revenue)
- **Profitability**: {{profitability .ProfitMargin}} ({{f1 .ProfitMargin}}% margin, ROE {{f1 .ROE}}%)
- **Leverage**: {{leverage .DebtToEquity}} (debt/equity {{f2 .DebtToEquity}}x)
- **Momentum**: {{momentum .Change}} ({{volatility .Beta}} volatility, beta {{f2 .Beta}})
- **Dividend Yield**: {{f2 .DividendYield}}%

## Methodology
{{.Profile.Methodology}}
`

const investorTemplate = `# {{.Profile.Name}}'s Analysis: {{.Company}} ({{.Subject}})
{{if .Quote}}
> {{.Quote}}
{{end}}
## Philosophy
{{.Profile.Philosophy}}

**Risk Profile**: {{.Profile.RiskProfile}}

## View
At a P/E of {{f1 .PE}}x with {{pct .RevenueGrowth}} revenue growth and {{f1 .ProfitMargin}}% margins, {{.Company}} shows {{lower (valuation .PE)}} pricing, {{lower (growth .RevenueGrowth)}} and {{lower (profitability .ProfitMargin)}} profitability.
Leverage is {{lower (leverage .DebtToEquity)}} and price momentum is {{lower (momentum .Change)}}.
{{if .UnavailableReports}}
{{.UnavailableReports}} analyst report(s) were unavailable for this review.
{{end}}
**Recommendation**: {{.Stance}}
`

const synthesisTemplate = `# Investment Synthesis: {{.Subject}}

## Panel Vote
- BUY: {{.Tally.Buy}}
- HOLD: {{.Tally.Hold}}
- SELL: {{.Tally.Sell}}
{{- if .Tally.Unavailable}}
- Unavailable: {{.Tally.Unavailable}}
{{- end}}

## Recommendation
**Position**: {{.Tally.Position}}{{if eq .Tally.Votes 0}} - Pending detailed analysis{{end}}
{{if .Profile.Philosophy}}
{{.Profile.Philosophy}}
{{end}}`
