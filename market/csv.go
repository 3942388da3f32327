package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCSV reads a price table from a CSV file with a header row naming at
// least date (or timestamp), open, high, low, close and volume, in any
// order and case. Rows are sorted by time before validation.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	timeCol, ok := idx["date"]
	if !ok {
		timeCol, ok = idx["timestamp"]
	}
	if !ok {
		return nil, &SchemaError{Msg: "csv header has no date or timestamp column"}
	}
	for _, col := range []string{"open", "high", "low", "close", "volume"} {
		if _, ok := idx[col]; !ok {
			return nil, &SchemaError{Msg: "csv header missing column " + col}
		}
	}

	var bars []Bar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		ts, err := parseTime(rec[timeCol])
		if err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("line %d: %v", line, err)}
		}
		bar := Bar{Time: ts}
		for col, dst := range map[string]*float64{
			"open":   &bar.Open,
			"high":   &bar.High,
			"low":    &bar.Low,
			"close":  &bar.Close,
			"volume": &bar.Volume,
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[col]]), 64)
			if err != nil {
				return nil, &SchemaError{Msg: fmt.Sprintf("line %d: invalid %s value %q", line, col, rec[idx[col]])}
			}
			*dst = v
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	t := New(bars)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
