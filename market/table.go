// Package market holds the in-memory price table shared by the signal
// evaluator and the simulation engine. A table is loaded once and then
// only read.
package market

import (
	"math"
	"strings"
	"time"
)

// SchemaError reports a missing or malformed price-table column or row.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema error: " + e.Msg }

// Bar is one row of the price table.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Table is an ordered sequence of bars with strictly increasing timestamps.
type Table struct {
	Bars []Bar
}

// New wraps bars in a Table without copying. Callers must not mutate the
// slice afterwards.
func New(bars []Bar) *Table { return &Table{Bars: bars} }

func (t *Table) Len() int { return len(t.Bars) }

// Validate fails fast on tables the pipeline cannot work with: empty input
// or out-of-order / duplicate timestamps.
func (t *Table) Validate() error {
	if t == nil || len(t.Bars) == 0 {
		return &SchemaError{Msg: "price table is empty"}
	}
	for i := 1; i < len(t.Bars); i++ {
		if !t.Bars[i].Time.After(t.Bars[i-1].Time) {
			return &SchemaError{Msg: "timestamps must be unique and increasing at row " + t.Bars[i].Time.Format("2006-01-02 15:04:05")}
		}
	}
	for i, b := range t.Bars {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) || !finite(b.Volume) {
			return &SchemaError{Msg: "non-numeric price field at row " + t.Bars[i].Time.Format("2006-01-02 15:04:05")}
		}
	}
	return nil
}

// Column returns the named price column as a fresh slice aligned to the
// table. Names are case-insensitive; unknown names fail with SchemaError.
func (t *Table) Column(name string) ([]float64, error) {
	out := make([]float64, len(t.Bars))
	switch strings.ToLower(name) {
	case "open":
		for i, b := range t.Bars {
			out[i] = b.Open
		}
	case "high":
		for i, b := range t.Bars {
			out[i] = b.High
		}
	case "low":
		for i, b := range t.Bars {
			out[i] = b.Low
		}
	case "close":
		for i, b := range t.Bars {
			out[i] = b.Close
		}
	case "volume":
		for i, b := range t.Bars {
			out[i] = b.Volume
		}
	default:
		return nil, &SchemaError{Msg: "unknown column " + name}
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
