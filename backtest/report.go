package backtest

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteReportJSON writes the full report, trades and equity curve included,
// as indented JSON.
func WriteReportJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// PrintSummary writes a human-readable performance summary. Money amounts
// get thousands separators so large equities stay readable.
func PrintSummary(w io.Writer, rep *Report) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Initial capital: %.2f\n", rep.InitialCapital)
	p.Fprintf(w, "Final equity:    %.2f\n", rep.FinalEquity)
	p.Fprintf(w, "Total profit:    %.2f (%.2f%%)\n", rep.TotalProfit, rep.ProfitPercent)
	p.Fprintf(w, "Max drawdown:    %.2f%%\n", rep.MaxDrawdown*100)
	p.Fprintf(w, "Trades:          %d (wins %d, win rate %.1f%%)\n", rep.NumTrades, rep.NumWins, rep.WinRate)

	for i, tr := range rep.Trades {
		p.Fprintf(w, "  #%d %s -> %s  %.2f -> %.2f  profit %.2f\n",
			i+1, tr.EntryTime, tr.ExitTime, tr.EntryPrice, tr.ExitPrice, tr.Profit)
	}
}
