package backtest

// Trade is one completed round trip: opened and closed at bar closing
// prices, profit measured per unit.
type Trade struct {
	EntryTime  string  `json:"entry_time"`
	ExitTime   string  `json:"exit_time"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Profit     float64 `json:"profit"`
}

// Point is one equity-curve sample: the mark-to-market value after the
// bar's transition.
type Point struct {
	Time   string  `json:"time"`
	Equity float64 `json:"equity"`
}

// Report is the full outcome of one simulation run.
type Report struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalProfit    float64 `json:"total_profit"`
	ProfitPercent  float64 `json:"profit_percent"`
	MaxDrawdown    float64 `json:"max_drawdown"` // fraction of the running peak, in [0,1]
	NumTrades      int     `json:"num_trades"`
	NumWins        int     `json:"num_wins"`
	WinRate        float64 `json:"win_rate"`
	Trades         []Trade `json:"trades"`
	EquityCurve    []Point `json:"equity_curve"`
}
