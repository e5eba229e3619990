package commands

import (
	"regexp"
	"strconv"
	"strings"
)

var priceJunk = regexp.MustCompile(`[$,\s]`)

// parsePriceInput accepts flexible threshold formats: "50000", "$1,234.56",
// "50k", "1.5m". Returns 0, false for anything non-positive or unparsable.
func parsePriceInput(input string) (float64, bool) {
	cleaned := priceJunk.ReplaceAllString(strings.ToLower(input), "")
	if cleaned == "" {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "k"):
		multiplier = 1_000
		cleaned = strings.TrimSuffix(cleaned, "k")
	case strings.HasSuffix(cleaned, "m"):
		multiplier = 1_000_000
		cleaned = strings.TrimSuffix(cleaned, "m")
	case strings.HasSuffix(cleaned, "b"):
		multiplier = 1_000_000_000
		cleaned = strings.TrimSuffix(cleaned, "b")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value * multiplier, true
}

// validThreshold bounds accepted trigger prices.
func validThreshold(threshold float64) bool {
	return threshold >= 0.000001 && threshold <= 1_000_000
}
