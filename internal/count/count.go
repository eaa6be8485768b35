// Package count converts human-formatted follower counts into numbers.
package count

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparseable indicates the text contained no recognizable count. It is
// a normal result for noisy page text, never a pipeline-fatal condition.
var ErrUnparseable = errors.New("no parseable count in text")

// tokenPattern matches the leftmost numeric token with optional thousands
// separators, decimal point and a single magnitude letter. The trailing
// label only anchors the match, it contributes nothing to the value.
var tokenPattern = regexp.MustCompile(
	`(?i)(\d[\d,]*(?:\.\d+)?)\s*([KMB])?\s*(followers?|subscribers?|people follow this)?`)

var magnitudes = map[string]float64{
	"K": 1_000,
	"M": 1_000_000,
	"B": 1_000_000_000,
}

// Parse extracts a count from text such as "2,771 followers", "1.2M
// subscribers" or "3 people follow this". The result is a non-negative real
// number; fractional values from K/M/B suffixes are preserved here and
// truncated only when an update record is built.
func Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty input", ErrUnparseable)
	}

	m := tokenPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}

	numeral := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(numeral, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}

	if suffix := strings.ToUpper(m[2]); suffix != "" {
		value *= magnitudes[suffix]
	}

	return value, nil
}

// HasDigit reports whether text contains at least one decimal digit. Scan
// strategies use it to discard label-only elements cheaply before parsing.
func HasDigit(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}
