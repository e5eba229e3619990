package assets

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"btc", "bitcoin", true},
		{"BTC", "bitcoin", true},
		{" eth ", "ethereum", true},
		{"bitcoin", "bitcoin", true},
		{"matic", "matic-network", true},
		{"polygon", "matic-network", true},
		{"avax", "avalanche-2", true},
		{"$doge!", "dogecoin", true},
		{"", "", false},
		{"shibarium", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"bitcoin", "BTC"},
		{"ethereum", "ETH"},
		{"avalanche-2", "AVAX"},
		{"tezos", "XTZ"},
		{"matic-network", "Matic Network"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.id); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSupportedListIsStable(t *testing.T) {
	first := SupportedList()
	if !strings.Contains(first, "BTC") || !strings.Contains(first, "ETH") {
		t.Errorf("supported list is missing mainstream assets: %q", first)
	}
	for i := 0; i < 10; i++ {
		if got := SupportedList(); got != first {
			t.Fatalf("supported list is not deterministic: %q vs %q", got, first)
		}
	}
}
