package nl

import (
	"strings"
	"testing"

	"tradedsl/dsl"
)

func TestTranslateCrossStrategy(t *testing.T) {
	got, err := Translate("Buy when SMA(close, 10) crosses above SMA(close, 30) and sell when SMA(close, 30) crosses below SMA(close, 10)")
	if err != nil {
		t.Fatal(err)
	}
	want := "ENTRY: CROSSOVER(SMA(close, 10), SMA(close, 30))\nEXIT: CROSSUNDER(SMA(close, 30), SMA(close, 10))"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTranslateComparisonsAndNumbers(t *testing.T) {
	got, err := Translate("buy when RSI(close, 14) is below 30 and volume above 1M and sell when RSI(close, 14) is above 70")
	if err != nil {
		t.Fatal(err)
	}
	want := "ENTRY: RSI(close, 14) < 30 AND volume > 1000000\nEXIT: RSI(close, 14) > 70"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTranslateKSuffixAndEquals(t *testing.T) {
	got, err := Translate("entry when volume equals 10k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ENTRY: volume == 10000" {
		t.Fatalf("got %q", got)
	}
}

func TestTranslateEntryOnly(t *testing.T) {
	got, err := Translate("buy when close above 100")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ENTRY: close > 100" {
		t.Fatalf("got %q", got)
	}
}

func TestTranslateOutputParses(t *testing.T) {
	texts := []string{
		"Buy when SMA(close, 10) crosses above SMA(close, 30) and sell when SMA(close, 30) crosses below SMA(close, 10)",
		"buy when close > 50 and volume above 100k and sell when close < 40",
		"buy when RSI(close, 14) is below 30",
	}
	for _, text := range texts {
		out, err := Translate(text)
		if err != nil {
			t.Fatalf("translate %q: %v", text, err)
		}
		if _, err := dsl.Parse(out); err != nil {
			t.Fatalf("translated output does not parse: %q -> %q: %v", text, out, err)
		}
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []string{
		"",
		"do something smart",
		"buy when close sideways 100",
	}
	for _, text := range cases {
		if _, err := Translate(text); err == nil {
			t.Fatalf("expected error for %q", text)
		}
	}
}

func TestTranslateCaseInsensitive(t *testing.T) {
	got, err := Translate("BUY WHEN CLOSE ABOVE 10 AND SELL WHEN CLOSE BELOW 5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "ENTRY: close > 10") || !strings.Contains(got, "EXIT: close < 5") {
		t.Fatalf("got %q", got)
	}
}
