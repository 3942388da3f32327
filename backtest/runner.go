package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"tradedsl/dsl"
	"tradedsl/logger"
	"tradedsl/market"
	"tradedsl/signal"
)

// Runner drives the whole pipeline: rule text -> tree -> signals -> report.
// It holds only the stateless parser and is safe to share.
type Runner struct {
	parser *dsl.Parser
}

func NewRunner() *Runner {
	return &Runner{parser: dsl.NewParser()}
}

// Run executes one backtest. The table comes from cfg.Table when set
// (already-materialized bars, e.g. from an API request) and from the CSV
// at cfg.DataPath otherwise.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	table, err := r.loadTable(cfg)
	if err != nil {
		return nil, err
	}

	ctx, span := logger.StartSpan(ctx, "backtest.run")
	defer span.End()

	_, parseSpan := logger.StartSpan(ctx, "parse")
	strat, err := r.parser.Parse(cfg.DSL)
	parseSpan.End()
	if err != nil {
		return nil, err
	}
	slog.Debug("rules parsed", "rules", len(strat.Rules))

	_, evalSpan := logger.StartSpan(ctx, "evaluate")
	sigs, err := signal.Evaluate(strat, table)
	evalSpan.End()
	if err != nil {
		return nil, err
	}

	_, simSpan := logger.StartSpan(ctx, "simulate")
	report, err := Run(table, sigs, cfg.InitialCapital)
	simSpan.End()
	if err != nil {
		return nil, err
	}
	slog.Info("backtest finished",
		"bars", table.Len(),
		"trades", report.NumTrades,
		"final_equity", report.FinalEquity,
		"max_drawdown", report.MaxDrawdown,
	)

	if cfg.ChartPath != "" {
		svg, err := RenderEquitySVG("Equity", report.EquityCurve, SVGChartOptions{})
		if err != nil {
			return nil, fmt.Errorf("render equity chart: %w", err)
		}
		if err := os.WriteFile(cfg.ChartPath, svg, 0o644); err != nil {
			return nil, fmt.Errorf("write equity chart: %w", err)
		}
		slog.Info("equity chart written", "path", cfg.ChartPath)
	}
	return report, nil
}

// ScanResult reports whether the rules fire on the most recent bar.
type ScanResult struct {
	LastTime  string  `json:"last_time"`
	LastClose float64 `json:"last_close"`
	Entry     bool    `json:"entry"`
	Exit      bool    `json:"exit"`
}

// Scan evaluates the rules over the table and reports the final bar's
// signals. Useful for checking whether a strategy would act today without
// running a full simulation.
func (r *Runner) Scan(ctx context.Context, cfg RunConfig) (*ScanResult, error) {
	table, err := r.loadTable(cfg)
	if err != nil {
		return nil, err
	}

	_, span := logger.StartSpan(ctx, "backtest.scan")
	defer span.End()

	strat, err := r.parser.Parse(cfg.DSL)
	if err != nil {
		return nil, err
	}
	sigs, err := signal.Evaluate(strat, table)
	if err != nil {
		return nil, err
	}

	last := table.Len() - 1
	return &ScanResult{
		LastTime:  table.Bars[last].Time.Format(timeLayout),
		LastClose: table.Bars[last].Close,
		Entry:     sigs.Entry[last],
		Exit:      sigs.Exit[last],
	}, nil
}

func (r *Runner) loadTable(cfg RunConfig) (*market.Table, error) {
	if cfg.Table != nil {
		return cfg.Table, nil
	}
	if cfg.DataPath == "" {
		return nil, fmt.Errorf("no price data configured")
	}
	return market.LoadCSV(cfg.DataPath)
}
