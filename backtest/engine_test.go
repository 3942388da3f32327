package backtest

import (
	"math"
	"testing"
	"time"

	"tradedsl/market"
	"tradedsl/signal"
)

func table(closes ...float64) *market.Table {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}
	return market.New(bars)
}

func sigs(entry, exit []bool) *signal.Signals {
	return &signal.Signals{Entry: entry, Exit: exit}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunSingleLosingTrade(t *testing.T) {
	tbl := table(10, 11, 9, 12, 8)
	rep, err := Run(tbl, sigs(
		[]bool{true, false, false, false, false},
		[]bool{false, false, true, false, false},
	), 10000)
	if err != nil {
		t.Fatal(err)
	}

	if rep.NumTrades != 1 {
		t.Fatalf("trades = %d, want 1", rep.NumTrades)
	}
	tr := rep.Trades[0]
	if tr.EntryPrice != 10 || tr.ExitPrice != 9 || !almostEqual(tr.Profit, -1) {
		t.Fatalf("trade = %+v", tr)
	}
	if tr.EntryTime != "2024-01-01" || tr.ExitTime != "2024-01-03" {
		t.Fatalf("trade times = %s -> %s", tr.EntryTime, tr.ExitTime)
	}
	if !almostEqual(rep.FinalEquity, 9999) {
		t.Fatalf("final equity = %v, want 9999", rep.FinalEquity)
	}
	if !almostEqual(rep.TotalProfit, -1) {
		t.Fatalf("total profit = %v, want -1", rep.TotalProfit)
	}
	if rep.NumWins != 0 || rep.WinRate != 0 {
		t.Fatalf("wins = %d, win rate = %v", rep.NumWins, rep.WinRate)
	}

	// Mark-to-market curve: entry at 10, marked at each close until exit.
	want := []float64{10000, 10001, 9999, 9999, 9999}
	if len(rep.EquityCurve) != len(want) {
		t.Fatalf("curve length = %d", len(rep.EquityCurve))
	}
	for i, pt := range rep.EquityCurve {
		if !almostEqual(pt.Equity, want[i]) {
			t.Fatalf("curve[%d] = %v, want %v", i, pt.Equity, want[i])
		}
	}

	// Peak 10001, trough 9999.
	wantDD := (10001.0 - 9999.0) / 10001.0
	if !almostEqual(rep.MaxDrawdown, wantDD) {
		t.Fatalf("max drawdown = %v, want %v", rep.MaxDrawdown, wantDD)
	}
}

func TestRunNoSignals(t *testing.T) {
	tbl := table(10, 11, 12)
	rep, err := Run(tbl, sigs(make([]bool, 3), make([]bool, 3)), 5000)
	if err != nil {
		t.Fatal(err)
	}
	if rep.NumTrades != 0 || rep.WinRate != 0 {
		t.Fatalf("trades = %d, win rate = %v", rep.NumTrades, rep.WinRate)
	}
	if !almostEqual(rep.FinalEquity, 5000) || rep.MaxDrawdown != 0 {
		t.Fatalf("final equity = %v, drawdown = %v", rep.FinalEquity, rep.MaxDrawdown)
	}
	for _, pt := range rep.EquityCurve {
		if !almostEqual(pt.Equity, 5000) {
			t.Fatalf("flat run moved equity: %v", pt.Equity)
		}
	}
}

func TestRunForceCloseAtEnd(t *testing.T) {
	tbl := table(10, 15)
	rep, err := Run(tbl, sigs(
		[]bool{true, false},
		[]bool{false, false},
	), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if rep.NumTrades != 1 {
		t.Fatalf("trades = %d, want 1", rep.NumTrades)
	}
	tr := rep.Trades[0]
	if tr.ExitTime != "2024-01-02" || !almostEqual(tr.Profit, 5) {
		t.Fatalf("forced trade = %+v", tr)
	}
	if !almostEqual(rep.FinalEquity, 10005) {
		t.Fatalf("final equity = %v, want 10005", rep.FinalEquity)
	}
	if rep.NumWins != 1 || !almostEqual(rep.WinRate, 100) {
		t.Fatalf("wins = %d, win rate = %v", rep.NumWins, rep.WinRate)
	}
}

func TestRunSameBarExitThenEntry(t *testing.T) {
	tbl := table(10, 12, 11)
	rep, err := Run(tbl, sigs(
		[]bool{true, false, true},
		[]bool{false, false, true},
	), 10000)
	if err != nil {
		t.Fatal(err)
	}
	// Bar 3 closes the first trade and reopens at the same price; the
	// reopened position is force-closed at the same bar for zero profit.
	if rep.NumTrades != 2 {
		t.Fatalf("trades = %d, want 2", rep.NumTrades)
	}
	if !almostEqual(rep.Trades[0].Profit, 1) {
		t.Fatalf("first trade profit = %v, want 1", rep.Trades[0].Profit)
	}
	if !almostEqual(rep.Trades[1].Profit, 0) {
		t.Fatalf("reopened trade profit = %v, want 0", rep.Trades[1].Profit)
	}
	// Zero-profit trades do not count as wins.
	if rep.NumWins != 1 || !almostEqual(rep.WinRate, 50) {
		t.Fatalf("wins = %d, win rate = %v", rep.NumWins, rep.WinRate)
	}
	if !almostEqual(rep.FinalEquity, 10001) {
		t.Fatalf("final equity = %v, want 10001", rep.FinalEquity)
	}
}

func TestRunDrawdownBounds(t *testing.T) {
	tbl := table(100, 60, 80, 40)
	rep, err := Run(tbl, sigs(
		[]bool{true, false, false, false},
		[]bool{false, false, false, false},
	), 1000)
	if err != nil {
		t.Fatal(err)
	}
	if rep.MaxDrawdown < 0 || rep.MaxDrawdown > 1 {
		t.Fatalf("drawdown out of range: %v", rep.MaxDrawdown)
	}
	// Peak 1000 at bar 1, trough 940 at bar 4.
	if !almostEqual(rep.MaxDrawdown, 60.0/1000.0) {
		t.Fatalf("max drawdown = %v, want 0.06", rep.MaxDrawdown)
	}
}

func TestRunInputValidation(t *testing.T) {
	tbl := table(10, 11)

	if _, err := Run(tbl, sigs([]bool{true}, []bool{false}), 10000); err == nil {
		t.Fatal("expected error for misaligned signals")
	}
	if _, err := Run(tbl, nil, 10000); err == nil {
		t.Fatal("expected error for nil signals")
	}
	if _, err := Run(tbl, sigs(make([]bool, 2), make([]bool, 2)), 0); err == nil {
		t.Fatal("expected error for zero capital")
	}
	if _, err := Run(market.New(nil), sigs(nil, nil), 10000); err == nil {
		t.Fatal("expected error for empty table")
	}
}
