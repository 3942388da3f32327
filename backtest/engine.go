// Package backtest simulates a single-position strategy over per-bar
// entry/exit signals and reports performance metrics.
package backtest

import (
	"fmt"

	"tradedsl/market"
	"tradedsl/signal"
)

const timeLayout = "2006-01-02"

// Run drives the position state machine over the table, bar by bar in
// chronological order. Per bar the exit check runs before the entry check,
// so a bar with both signals set closes the open position and immediately
// reopens at the same close. A position still open after the last bar is
// force-closed at that bar's closing price. The simulation is strictly
// sequential: the state, entry price and running peak all depend on every
// prior bar.
func Run(table *market.Table, sigs *signal.Signals, initialCapital float64) (*Report, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	n := table.Len()
	if sigs == nil || len(sigs.Entry) != n || len(sigs.Exit) != n {
		return nil, fmt.Errorf("signals not aligned to table: %d bars", n)
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}

	equity := initialCapital
	holding := false
	var entryPrice float64
	var entryTime string

	var trades []Trade
	curve := make([]Point, 0, n)
	peak := initialCapital
	maxDD := 0.0

	for i, bar := range table.Bars {
		ts := bar.Time.Format(timeLayout)

		if holding && sigs.Exit[i] {
			profit := bar.Close - entryPrice
			equity += profit
			trades = append(trades, Trade{
				EntryTime:  entryTime,
				ExitTime:   ts,
				EntryPrice: entryPrice,
				ExitPrice:  bar.Close,
				Profit:     profit,
			})
			holding = false
			entryPrice = 0
		}

		if !holding && sigs.Entry[i] {
			holding = true
			entryPrice = bar.Close
			entryTime = ts
		}

		mark := equity
		if holding {
			mark += bar.Close - entryPrice
		}
		curve = append(curve, Point{Time: ts, Equity: mark})

		if mark > peak {
			peak = mark
		}
		if dd := (peak - mark) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	if holding {
		last := table.Bars[n-1]
		profit := last.Close - entryPrice
		equity += profit
		trades = append(trades, Trade{
			EntryTime:  entryTime,
			ExitTime:   last.Time.Format(timeLayout),
			EntryPrice: entryPrice,
			ExitPrice:  last.Close,
			Profit:     profit,
		})
	}

	wins := 0
	for _, tr := range trades {
		if tr.Profit > 0 {
			wins++
		}
	}
	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
	}

	totalProfit := equity - initialCapital
	return &Report{
		InitialCapital: initialCapital,
		FinalEquity:    equity,
		TotalProfit:    totalProfit,
		ProfitPercent:  totalProfit / initialCapital * 100,
		MaxDrawdown:    maxDD,
		NumTrades:      len(trades),
		NumWins:        wins,
		WinRate:        winRate,
		Trades:         trades,
		EquityCurve:    curve,
	}, nil
}
