package pricing

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"100":    "100",
		"100.10": "100.1",
		"100.00": "100",
		"2.555":  "2.56",
		"0.5":    "0.5",
		"":       "0",
		"  ":     "0",
		"abc":    "0",
	}
	for input, want := range cases {
		if got := FormatAmount(input); got != want {
			t.Fatalf("FormatAmount(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatAmountIdempotent(t *testing.T) {
	first := FormatAmount("1234.5600")
	second := FormatAmount("1234.5600")
	if first != second {
		t.Fatalf("expected identical output, got %q then %q", first, second)
	}
}

func TestCurrencySymbol(t *testing.T) {
	if got := CurrencySymbol("USD"); got != "$" {
		t.Fatalf("expected $, got %q", got)
	}
	if got := CurrencySymbol("usd"); got != "$" {
		t.Fatalf("expected case-insensitive lookup, got %q", got)
	}
	if got := CurrencySymbol("EUR"); got != "€" {
		t.Fatalf("expected €, got %q", got)
	}
	// unmapped currencies fall back to the raw code, never an error
	if got := CurrencySymbol("XAU"); got != "XAU" {
		t.Fatalf("expected raw code fallback, got %q", got)
	}
}

func TestParseAmountLenient(t *testing.T) {
	if !ParseAmount("not-a-number").IsZero() {
		t.Fatal("unparseable amounts must parse as zero")
	}
	if !ParseAmount("").IsZero() {
		t.Fatal("empty amounts must parse as zero")
	}
}
