package entity

import (
	"testing"

	"github.com/quotevox/quotevox-backend/constants"
)

func TestLineTotalRounds(t *testing.T) {
	tests := []struct {
		quantity float64
		price    int64
		want     int64
	}{
		{3, 1150, 3450},
		{0.5, 8000, 4000},
		{1.5, 333, 500},  // 499.5 rounds up
		{0.333, 100, 33}, // 33.3 rounds down
		{0, 10000, 0},
	}
	for _, tt := range tests {
		if got := LineTotal(tt.quantity, tt.price); got != tt.want {
			t.Fatalf("LineTotal(%v, %v) = %v, want %v", tt.quantity, tt.price, got, tt.want)
		}
	}
}

func TestLineItemIsPlaceholder(t *testing.T) {
	real := QuoteLineItem{Notes: "from site visit"}
	if real.IsPlaceholder() {
		t.Fatal("ordinary notes misread as placeholder")
	}
	ph := QuoteLineItem{Notes: constants.PlaceholderMarker + ": replace before sending"}
	if !ph.IsPlaceholder() {
		t.Fatal("placeholder marker not detected")
	}
}

func TestConfidentAbsentVsZeroConfidence(t *testing.T) {
	absent := Absent[float64]()
	if absent.Present() {
		t.Fatal("absent value reports present")
	}

	zero := NewConfident(4.0, 0)
	if !zero.Present() {
		t.Fatal("a present value with zero confidence is not the same as absent")
	}
	if zero.ValueOr(-1) != 4 {
		t.Fatalf("ValueOr = %v, want wrapped 4", zero.ValueOr(-1))
	}
	if absent.ValueOr(-1) != -1 {
		t.Fatalf("ValueOr = %v, want default", absent.ValueOr(-1))
	}
}

func TestPricingProfileWorkdayFallback(t *testing.T) {
	p := &PricingProfile{}
	if p.WorkdayHours() != 8 {
		t.Fatalf("workday = %v, want 8h fallback", p.WorkdayHours())
	}
	p.WorkdayHoursDefault = 7.5
	if p.WorkdayHours() != 7.5 {
		t.Fatalf("workday = %v, want configured 7.5", p.WorkdayHours())
	}
}
