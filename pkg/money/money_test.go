package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineTotal(t *testing.T) {
	price := decimal.RequireFromString("5.00")
	if got := String(LineTotal(price, 10)); got != "50.00" {
		t.Fatalf("expected 50.00 got %s", got)
	}

	odd := decimal.RequireFromString("0.333")
	if got := String(LineTotal(odd, 3)); got != "1.00" {
		t.Fatalf("expected 1.00 got %s", got)
	}
}

func TestSum(t *testing.T) {
	got := Sum(decimal.RequireFromString("3.50"), decimal.RequireFromString("2.25"), decimal.RequireFromString("0.005"))
	if String(got) != "5.76" {
		t.Fatalf("expected 5.76 got %s", String(got))
	}
	if empty := String(Sum()); empty != "0.00" {
		t.Fatalf("expected 0.00 got %s", empty)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("12.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if String(d) != "12.50" {
		t.Fatalf("expected 12.50 got %s", String(d))
	}

	for _, raw := range []string{"-1", "abc"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
