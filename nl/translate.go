// Package nl translates free-form strategy descriptions ("buy when X
// crosses above Y and sell when ...") into rule-language text. It is a
// best-effort regex splitter: the output is ordinary rule text and goes
// through the same parser as hand-written rules.
package nl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	exitSplitRe   = regexp.MustCompile(`(?i)\s+(?:and\s+)?(?:sell|exit)(?:\s+(?:when|if))?\s+`)
	entryPrefixRe = regexp.MustCompile(`(?i)^(?:buy|entry)(?:\s+(?:when|if))?\s+`)
	andSplitRe    = regexp.MustCompile(`(?i)\s+and\s+`)
	indicatorRe   = regexp.MustCompile(`(?i)^(SMA|RSI)\s*\(([^)]*)\)$`)
	numberRe      = regexp.MustCompile(`(?i)^[\d.]+[mk]?$`)
)

// Longest phrases first so "crosses above" wins over "above".
var operatorPhrases = []struct {
	phrase string
	op     string
}{
	{"crosses above", "CROSS_ABOVE"},
	{"crosses below", "CROSS_BELOW"},
	{"is above", ">"},
	{"is below", "<"},
	{"equals", "=="},
	{"above", ">"},
	{"below", "<"},
	{">", ">"},
	{"<", "<"},
	{"==", "=="},
}

var conditionRe = buildConditionRe()

func buildConditionRe() *regexp.Regexp {
	parts := make([]string, 0, len(operatorPhrases))
	for _, p := range operatorPhrases {
		parts = append(parts, regexp.QuoteMeta(p.phrase))
	}
	return regexp.MustCompile(`(?i)^(.*?)\s+(` + strings.Join(parts, "|") + `)\s+(.*)$`)
}

// Translate converts a natural-language strategy description into rule
// text with one ENTRY and/or EXIT line. It fails when no condition can be
// recognized.
func Translate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty strategy description")
	}

	entryText := text
	exitText := ""
	if loc := exitSplitRe.FindStringIndex(text); loc != nil {
		entryText = text[:loc[0]]
		exitText = text[loc[1]:]
	}
	entryText = strings.TrimSpace(entryPrefixRe.ReplaceAllString(entryText, ""))

	var lines []string
	for _, clause := range []struct {
		keyword string
		text    string
	}{
		{"ENTRY", entryText},
		{"EXIT", exitText},
	} {
		conds, err := parseConditions(clause.text)
		if err != nil {
			return "", fmt.Errorf("%s clause: %w", strings.ToLower(clause.keyword), err)
		}
		if len(conds) > 0 {
			lines = append(lines, clause.keyword+": "+strings.Join(conds, " AND "))
		}
	}
	if len(lines) == 0 {
		return "", errors.New("no recognizable conditions")
	}
	return strings.Join(lines, "\n"), nil
}

func parseConditions(clause string) ([]string, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil, nil
	}
	var out []string
	for _, cond := range andSplitRe.Split(clause, -1) {
		cond = strings.TrimSpace(cond)
		if cond == "" {
			continue
		}
		m := conditionRe.FindStringSubmatch(cond)
		if m == nil {
			return nil, fmt.Errorf("cannot understand condition %q", cond)
		}
		left, err := parseOperand(m[1])
		if err != nil {
			return nil, err
		}
		right, err := parseOperand(m[3])
		if err != nil {
			return nil, err
		}
		switch mapOperator(m[2]) {
		case "CROSS_ABOVE":
			out = append(out, fmt.Sprintf("CROSSOVER(%s, %s)", left, right))
		case "CROSS_BELOW":
			out = append(out, fmt.Sprintf("CROSSUNDER(%s, %s)", left, right))
		default:
			out = append(out, fmt.Sprintf("%s %s %s", left, mapOperator(m[2]), right))
		}
	}
	return out, nil
}

func mapOperator(phrase string) string {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	for _, p := range operatorPhrases {
		if p.phrase == phrase {
			return p.op
		}
	}
	return phrase
}

// parseOperand renders a single operand as rule-language text: an
// indicator call, a number (with k/m shorthand expanded), or a lowercased
// column name.
func parseOperand(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty operand")
	}

	if m := indicatorRe.FindStringSubmatch(s); m != nil {
		params := strings.Split(m[2], ",")
		if len(params) != 2 {
			return "", fmt.Errorf("indicator %s needs a column and a period, got %q", strings.ToUpper(m[1]), m[2])
		}
		column := strings.ToLower(strings.TrimSpace(params[0]))
		period, err := strconv.Atoi(strings.TrimSpace(params[1]))
		if err != nil {
			return "", fmt.Errorf("invalid indicator period %q", params[1])
		}
		return fmt.Sprintf("%s(%s, %d)", strings.ToUpper(m[1]), column, period), nil
	}

	if numberRe.MatchString(s) {
		return formatNumber(s)
	}

	return strings.ToLower(s), nil
}

func formatNumber(s string) (string, error) {
	lower := strings.ToLower(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(lower, "m"):
		mult = 1_000_000
		lower = strings.TrimSuffix(lower, "m")
	case strings.HasSuffix(lower, "k"):
		mult = 1_000
		lower = strings.TrimSuffix(lower, "k")
	}
	v, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q", s)
	}
	return strconv.FormatFloat(v*mult, 'f', -1, 64), nil
}
