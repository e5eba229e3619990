package helpers

import (
	"strings"
	"testing"
	"time"
)

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2("price.alert (btc-usd)!")
	want := `price\.alert \(btc\-usd\)\!`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatPriceUS(t *testing.T) {
	tests := []struct {
		price  float64
		escape bool
		want   string
	}{
		{50000, false, "50,000"},
		{1234.5, false, "1,234"},
		{42.5, false, "42.50"},
		{0.5, false, "0.500000"},
		{0.000004, false, "0.00000400"},
		{42.5, true, `42\.50`},
	}
	for _, tt := range tests {
		if got := FormatPriceUS(tt.price, tt.escape); got != tt.want {
			t.Errorf("FormatPriceUS(%v, %v) = %q, want %q", tt.price, tt.escape, got, tt.want)
		}
	}
}

func TestFormatPriceRoundedUS(t *testing.T) {
	if got := FormatPriceRoundedUS(49999.6); got != "50,000" {
		t.Errorf("got %q, want %q", got, "50,000")
	}
}

func TestTimeAgo(t *testing.T) {
	got := TimeAgo(time.Now().Add(-2 * time.Hour))
	if !strings.Contains(got, "2 hours ago") {
		t.Errorf("got %q, want a relative phrase", got)
	}
}
