package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradedsl/api"
	"tradedsl/backtest"
	"tradedsl/logger"
)

var (
	backtestMode   bool
	backtestConfig string
	backtestOut    string
	scanMode       bool
	serveMode      bool
	port           int
	dslText        string
	dslFile        string
	nlText         string
	dataPath       string
	capital        float64
	chartPath      string
)

func main() {
	flag.BoolVar(&backtestMode, "backtest", false, "run a backtest and exit")
	flag.StringVar(&backtestConfig, "bt-config", "", "backtest configuration file (YAML)")
	flag.StringVar(&backtestOut, "bt-out", "", "backtest report JSON output path (default stdout summary)")
	flag.BoolVar(&scanMode, "scan", false, "report whether the rules fire on the latest bar and exit")
	flag.BoolVar(&serveMode, "serve", false, "start the HTTP API server")
	flag.IntVar(&port, "port", 8080, "HTTP API port (with -serve)")
	flag.StringVar(&dslText, "dsl", "", "inline rule text, e.g. \"ENTRY: close > 100\"")
	flag.StringVar(&dslFile, "dsl-file", "", "rule text file path")
	flag.StringVar(&nlText, "nl", "", "natural language strategy description, translated before use")
	flag.StringVar(&dataPath, "data", "", "price data CSV path")
	flag.Float64Var(&capital, "capital", 0, "initial capital (default 10000)")
	flag.StringVar(&chartPath, "chart", "", "equity curve SVG output path")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		slog.Error("logger init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = logger.Shutdown(ctx)
	}()

	switch {
	case backtestMode:
		if err := runBacktest(backtestOut); err != nil {
			slog.Error("backtest failed", "err", err)
			os.Exit(1)
		}
	case scanMode:
		if err := runScan(); err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
	case serveMode:
		if err := runServe(port); err != nil {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runServe(port int) error {
	server := api.NewServer(port)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		slog.Info("shutting down")
		return server.Shutdown()
	}
}

// resolveConfig merges the YAML config (when given) with command line
// overrides. Flags win over the file.
func resolveConfig() (backtest.RunConfig, error) {
	cfg := backtest.DefaultRunConfig()
	if backtestConfig != "" {
		loaded, err := backtest.LoadRunConfig(backtestConfig)
		if err != nil {
			return backtest.RunConfig{}, err
		}
		cfg = loaded
	}

	if dslText != "" || dslFile != "" || nlText != "" {
		dsl, err := backtest.ResolveStrategy(dslText, dslFile, nlText)
		if err != nil {
			return backtest.RunConfig{}, err
		}
		cfg.DSL = dsl
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if capital > 0 {
		cfg.InitialCapital = capital
	}
	if chartPath != "" {
		cfg.ChartPath = chartPath
	}
	return cfg, nil
}
