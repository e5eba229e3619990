// Package assets resolves user-facing coin symbols to the canonical ids the
// price API understands.
package assets

import (
	"regexp"
	"sort"
	"strings"
)

// symbolToID maps what users type to canonical price-API ids.
var symbolToID = map[string]string{
	"btc":     "bitcoin",
	"bitcoin": "bitcoin",

	"eth":      "ethereum",
	"ethereum": "ethereum",

	"ada":     "cardano",
	"cardano": "cardano",

	"sol":    "solana",
	"solana": "solana",

	"dot":      "polkadot",
	"polkadot": "polkadot",

	"matic":   "matic-network",
	"polygon": "matic-network",

	"link":      "chainlink",
	"chainlink": "chainlink",

	"avax":      "avalanche-2",
	"avalanche": "avalanche-2",

	"atom":   "cosmos",
	"cosmos": "cosmos",

	"xtz":   "tezos",
	"tezos": "tezos",

	"algo":     "algorand",
	"algorand": "algorand",

	"near": "near",

	"ftm":    "fantom",
	"fantom": "fantom",

	"one":     "harmony",
	"harmony": "harmony",

	"usdt": "tether",
	"usdc": "usd-coin",
	"busd": "binance-usd",

	"bnb":     "binancecoin",
	"binance": "binancecoin",

	"xrp":    "ripple",
	"ripple": "ripple",

	"doge":     "dogecoin",
	"dogecoin": "dogecoin",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9-]`)

// Resolve normalizes user input and returns the canonical asset id.
// Canonical ids themselves are accepted as input.
func Resolve(input string) (string, bool) {
	normalized := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "")
	if normalized == "" {
		return "", false
	}

	if id, ok := symbolToID[normalized]; ok {
		return id, true
	}
	for _, id := range symbolToID {
		if id == normalized {
			return id, true
		}
	}
	return "", false
}

// DisplayName returns a short user-facing name for a canonical id,
// preferring the ticker symbol ("BTC" for "bitcoin").
func DisplayName(assetID string) string {
	best := ""
	for symbol, id := range symbolToID {
		if id != assetID {
			continue
		}
		if len(symbol) <= 4 && (best == "" || len(symbol) < len(best)) {
			best = symbol
		}
	}
	if best != "" {
		return strings.ToUpper(best)
	}
	return strings.Title(strings.ReplaceAll(assetID, "-", " "))
}

// SupportedList returns a sorted, comma-joined list of supported assets.
func SupportedList() string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range symbolToID {
		if seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, DisplayName(id))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
