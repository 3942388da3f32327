package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tradedsl/backtest"
)

func runBacktest(outPath string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	runner := backtest.NewRunner()
	report, err := runner.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	if outPath == "" {
		backtest.PrintSummary(os.Stdout, report)
		return nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return backtest.WriteReportJSON(f, report)
}

func runScan() error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	runner := backtest.NewRunner()
	res, err := runner.Scan(context.Background(), cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
