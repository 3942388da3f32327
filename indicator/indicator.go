// Package indicator provides the vectorized indicator functions consumed by
// the signal evaluator. Every function maps input series of length n to an
// output series of length n, with NaN entries where there is not enough
// history to produce a value.
package indicator

import (
	"fmt"
	"math"
	"strings"
)

// Arg is a single indicator parameter: either a per-bar series or a scalar.
// Series is nil for scalar arguments.
type Arg struct {
	Series []float64
	Scalar float64
}

// Func computes an indicator series of length n from its arguments.
type Func func(n int, args []Arg) ([]float64, error)

var registry = map[string]Func{
	"SMA": sma,
	"RSI": rsi,
}

// Lookup returns the indicator function for a name, case-insensitively.
func Lookup(name string) (Func, bool) {
	f, ok := registry[strings.ToUpper(name)]
	return f, ok
}

// Register adds an indicator function under the given name, replacing any
// existing registration. Names are normalized to uppercase.
func Register(name string, f Func) {
	registry[strings.ToUpper(name)] = f
}

func seriesArg(args []Arg, i int, name string) ([]float64, error) {
	if i >= len(args) || args[i].Series == nil {
		return nil, fmt.Errorf("%s: argument %d must be a series", name, i+1)
	}
	return args[i].Series, nil
}

func periodArg(args []Arg, i int, name string) (int, error) {
	if i >= len(args) || args[i].Series != nil {
		return 0, fmt.Errorf("%s: argument %d must be a numeric period", name, i+1)
	}
	period := int(args[i].Scalar)
	if period <= 0 || float64(period) != args[i].Scalar {
		return 0, fmt.Errorf("%s: period must be a positive integer, got %v", name, args[i].Scalar)
	}
	return period, nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// sma is the simple moving average over a fixed window. The first period-1
// entries are NaN, as is any window containing a NaN input.
func sma(n int, args []Arg) ([]float64, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("SMA: expected 2 arguments (series, period), got %d", len(args))
	}
	s, err := seriesArg(args, 0, "SMA")
	if err != nil {
		return nil, err
	}
	period, err := periodArg(args, 1, "SMA")
	if err != nil {
		return nil, err
	}

	out := nanSeries(n)
	sum := 0.0
	nans := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(s[i]) {
			nans++
		} else {
			sum += s[i]
		}
		if i >= period {
			if math.IsNaN(s[i-period]) {
				nans--
			} else {
				sum -= s[i-period]
			}
		}
		if i >= period-1 && nans == 0 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// rsi is the Wilder relative strength index. Gains and losses are smoothed
// with an exponential moving average of center-of-mass period-1 (alpha =
// 1/period, weights renormalized over the observed history), which matches
// the reference implementation exactly. Values before index period-1 are
// NaN. When the average loss is zero the index saturates at 100; when both
// averages are zero it is undefined.
func rsi(n int, args []Arg) ([]float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("RSI: expected 1 or 2 arguments (series[, period]), got %d", len(args))
	}
	s, err := seriesArg(args, 0, "RSI")
	if err != nil {
		return nil, err
	}
	period := 14
	if len(args) == 2 {
		period, err = periodArg(args, 1, "RSI")
		if err != nil {
			return nil, err
		}
	}

	out := nanSeries(n)
	alpha := 1.0 / float64(period)
	decay := 1.0 - alpha

	var gainNum, lossNum, den float64
	for i := 0; i < n; i++ {
		var gain, loss float64
		if i > 0 {
			d := s[i] - s[i-1]
			switch {
			case math.IsNaN(d):
				// missing history contributes nothing
			case d > 0:
				gain = d
			default:
				loss = -d
			}
		}
		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
		den = 1 + decay*den

		if i < period-1 {
			continue
		}
		avgGain := gainNum / den
		avgLoss := lossNum / den
		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat series: 0/0, undefined
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out, nil
}
