package backtest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tradedsl/market"
	"tradedsl/nl"
)

type YAMLConfig struct {
	Backtest struct {
		Data           string  `yaml:"data"`
		InitialCapital float64 `yaml:"initial_capital"`
		Chart          string  `yaml:"chart"`
	} `yaml:"backtest"`

	Strategy struct {
		DSL     string `yaml:"dsl"`
		DSLFile string `yaml:"dsl_file"`
		Text    string `yaml:"text"`
	} `yaml:"strategy"`
}

type RunConfig struct {
	DSL            string
	DataPath       string
	InitialCapital float64
	ChartPath      string

	// Table overrides DataPath when the bars are already in memory
	// (API requests, tests).
	Table *market.Table
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		InitialCapital: 10_000,
	}
}

func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := DefaultRunConfig()
	cfg.DataPath = strings.TrimSpace(yc.Backtest.Data)
	cfg.ChartPath = strings.TrimSpace(yc.Backtest.Chart)
	if yc.Backtest.InitialCapital > 0 {
		cfg.InitialCapital = yc.Backtest.InitialCapital
	}

	dsl, err := ResolveStrategy(yc.Strategy.DSL, yc.Strategy.DSLFile, yc.Strategy.Text)
	if err != nil {
		return RunConfig{}, err
	}
	cfg.DSL = dsl
	return cfg, nil
}

// ResolveStrategy picks the rule text from the three strategy sources.
// Inline rule text wins over a rule file, which wins over a natural
// language description (translated before use). Exactly one source must
// be set.
func ResolveStrategy(inline, file, text string) (string, error) {
	set := 0
	for _, s := range []string{inline, file, text} {
		if strings.TrimSpace(s) != "" {
			set++
		}
	}
	if set == 0 {
		return "", fmt.Errorf("no strategy configured: set strategy.dsl, strategy.dsl_file or strategy.text")
	}
	if set > 1 {
		return "", fmt.Errorf("multiple strategy sources configured: set only one of strategy.dsl, strategy.dsl_file, strategy.text")
	}

	switch {
	case strings.TrimSpace(inline) != "":
		return strings.TrimSpace(inline), nil
	case strings.TrimSpace(file) != "":
		raw, err := os.ReadFile(strings.TrimSpace(file))
		if err != nil {
			return "", fmt.Errorf("read strategy file: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	default:
		out, err := nl.Translate(text)
		if err != nil {
			return "", fmt.Errorf("translate strategy text: %w", err)
		}
		return out, nil
	}
}
