package backtest

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

type SVGChartOptions struct {
	Width  int
	Height int
}

func (o SVGChartOptions) withDefaults() SVGChartOptions {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 520
	}
	return o
}

// RenderEquitySVG draws the equity curve as a single polyline with a
// horizontal baseline at the starting equity. The line is green while the
// run ends above its start and red otherwise.
func RenderEquitySVG(title string, curve []Point, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()
	if len(curve) < 2 {
		return nil, fmt.Errorf("not enough points: %d", len(curve))
	}

	minE := math.Inf(1)
	maxE := math.Inf(-1)
	for _, pt := range curve {
		if pt.Equity < minE {
			minE = pt.Equity
		}
		if pt.Equity > maxE {
			maxE = pt.Equity
		}
	}
	if math.IsInf(minE, 0) || math.IsInf(maxE, 0) {
		return nil, fmt.Errorf("invalid equity range")
	}
	if maxE <= minE {
		// flat curve still renders, centered
		pad := math.Abs(minE) * 0.02
		if pad <= 0 {
			pad = 1
		}
		minE -= pad
		maxE += pad
	} else {
		pad := (maxE - minE) * 0.05
		minE -= pad
		maxE += pad
	}

	// Layout
	w := float64(opt.Width)
	h := float64(opt.Height)
	mLeft := 70.0
	mRight := 20.0
	mTop := 24.0
	mBottom := 40.0
	plotW := w - mLeft - mRight
	plotH := h - mTop - mBottom
	if plotW <= 10 || plotH <= 10 {
		return nil, fmt.Errorf("invalid chart size")
	}

	equityToY := func(e float64) float64 {
		r := (e - minE) / (maxE - minE)
		r = math.Max(0, math.Min(1, r))
		return mTop + (1.0-r)*plotH
	}

	n := float64(len(curve))
	step := plotW / (n - 1)
	xAt := func(i int) float64 {
		return mLeft + float64(i)*step
	}

	bg := "#0b1220"
	grid := "rgba(255,255,255,0.08)"
	up := "#22c55e"
	down := "#ef4444"
	txt := "rgba(255,255,255,0.85)"

	start := curve[0].Equity
	end := curve[len(curve)-1].Equity
	col := up
	if end < start {
		col = down
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) + `" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + bg + `"/>` + "\n")

	// Header
	firstD := curve[0].Time
	lastD := curve[len(curve)-1].Time
	head := strings.TrimSpace(title)
	if head == "" {
		head = "EQUITY"
	}
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="16" fill="` + txt + `" font-size="14" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(head) + `  ` + html.EscapeString(firstD) + ` ~ ` + html.EscapeString(lastD) + `</text>` + "\n")

	// Grid: equity lines (5)
	for k := 0; k <= 5; k++ {
		y := mTop + (float64(k)/5.0)*plotH
		buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(y) + `" stroke="` + grid + `" stroke-width="1"/>` + "\n")
		e := maxE - (float64(k)/5.0)*(maxE-minE)
		buf.WriteString(`<text x="` + fmtFloat(6) + `" y="` + fmtFloat(y+4) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
			html.EscapeString(fmtEquity(e)) + `</text>` + "\n")
	}

	// Baseline at starting equity
	yStart := equityToY(start)
	buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(yStart) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(yStart) + `" stroke="rgba(255,255,255,0.65)" stroke-width="1.2" stroke-dasharray="6 6"/>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+6) + `" y="` + fmtFloat(yStart-4) + `" fill="rgba(255,255,255,0.65)" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString("start "+fmtEquity(start)) + `</text>` + "\n")

	// Equity polyline
	var pts strings.Builder
	for i, pt := range curve {
		if i > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(fmtFloat(xAt(i)) + "," + fmtFloat(equityToY(pt.Equity)))
	}
	buf.WriteString(`<polyline fill="none" stroke="` + col + `" stroke-width="1.8" points="` + pts.String() + `"/>` + "\n")

	// Footer dates
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(firstD) + `</text>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+plotW-70) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(lastD) + `</text>` + "\n")

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtEquity(e float64) string {
	if math.Abs(e) >= 1000 {
		return strconv.FormatFloat(e, 'f', 0, 64)
	}
	return strconv.FormatFloat(e, 'f', 2, 64)
}
