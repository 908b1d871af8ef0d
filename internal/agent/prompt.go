package agent

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Prompt renders the instruction text a language-model backed agent needs
// to play p for req. It contains the persona (system) part followed by the
// request (human) part.
func Prompt(p Profile, req orchestrator.Request) string {
	var b strings.Builder
	switch p.Role {
	case RoleAnalyst:
		fmt.Fprintf(&b, "You are a %s.\n\n", p.Name)
		fmt.Fprintf(&b, "Focus Areas: %s\nMethodology: %s\n\n", p.Focus, p.Methodology)
		b.WriteString("Your task is to analyze a stock from your specialized perspective.\n" +
			"Provide detailed analysis based on the data provided.\n" +
			"Focus only on your area of expertise and provide actionable insights.\n" +
			"Do not make definitive buy/sell recommendations - leave that to the investors.\n" +
			"Instead, highlight the key factors from your perspective that would influence an investment decision.\n\n")
		fmt.Fprintf(&b, "Stock Ticker: %s\nStock Data:\n%s\n", req.Subject, req.Record.Format())
		b.WriteString("Please provide your specialized analysis for this stock.\n")

	case RoleInvestor:
		fmt.Fprintf(&b, "You are %s, the famous investor.\n\n", p.Name)
		fmt.Fprintf(&b, "Investment Philosophy: %s\nRisk Profile: %s\n\n", p.Philosophy, p.RiskProfile)
		if len(p.Quotes) > 0 {
			b.WriteString("Famous Quotes:\n")
			for _, q := range p.Quotes {
				fmt.Fprintf(&b, "- %s\n", q)
			}
			b.WriteString("\n")
		}
		b.WriteString("You are participating in a debate about whether to invest in a stock.\n" +
			"Analyze the information provided about the stock using your unique investment approach.\n" +
			"Use your typical manner of speaking and decision-making process.\n" +
			"Make a clear investment recommendation: BUY, HOLD, or SELL.\n" +
			"Explain your rationale based on your personal investment criteria.\n\n")
		fmt.Fprintf(&b, "Stock Ticker: %s\nStock Information:\n%s\n", req.Subject, req.Record.Format())
		fmt.Fprintf(&b, "Market Context:\n%s\n\n", req.MarketContext)
		fmt.Fprintf(&b, "Analyst Reports:\n%s\n\n", req.AnalystReports)
		b.WriteString("Based on this information, would you invest in this stock? Provide your reasoning.\n")

	default:
		fmt.Fprintf(&b, "You are the %s.\n\n", p.Name)
		if p.Philosophy != "" {
			fmt.Fprintf(&b, "%s\n\n", p.Philosophy)
		}
		b.WriteString("Synthesize the investor opinions below into one investment decision.\n" +
			"State the overall position (BUY, HOLD, or SELL), the main arguments for and against,\n" +
			"and where the investors disagree.\n\n")
		fmt.Fprintf(&b, "Stock Ticker: %s\n", req.Subject)
		fmt.Fprintf(&b, "Market Context:\n%s\n\n", req.MarketContext)
		fmt.Fprintf(&b, "Investor Opinions:\n%s\n", req.Opinions)
	}
	return b.String()
}
