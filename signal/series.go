package signal

import "tradedsl/dsl"

// Elementwise kernels over aligned series. Comparisons involving NaN are
// false, so indicator warmup bars never produce signals.

func compare(op dsl.CmpOp, left, right []float64) []bool {
	out := make([]bool, len(left))
	switch op {
	case dsl.CmpGT:
		for i := range out {
			out[i] = left[i] > right[i]
		}
	case dsl.CmpLT:
		for i := range out {
			out[i] = left[i] < right[i]
		}
	case dsl.CmpGE:
		for i := range out {
			out[i] = left[i] >= right[i]
		}
	case dsl.CmpLE:
		for i := range out {
			out[i] = left[i] <= right[i]
		}
	case dsl.CmpEQ:
		for i := range out {
			out[i] = left[i] == right[i]
		}
	}
	return out
}

func andInto(acc, next []bool) {
	for i := range acc {
		acc[i] = acc[i] && next[i]
	}
}

func orInto(acc, next []bool) {
	for i := range acc {
		acc[i] = acc[i] || next[i]
	}
}

// crossOver is true at i when left moves from at-or-below right to strictly
// above it. Index 0 has no prior bar and is always false.
func crossOver(left, right []float64) []bool {
	out := make([]bool, len(left))
	for i := 1; i < len(left); i++ {
		out[i] = left[i] > right[i] && left[i-1] <= right[i-1]
	}
	return out
}

// crossUnder is the mirror of crossOver.
func crossUnder(left, right []float64) []bool {
	out := make([]bool, len(left))
	for i := 1; i < len(left); i++ {
		out[i] = left[i] < right[i] && left[i-1] >= right[i-1]
	}
	return out
}

func broadcast(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
