package pricing

import (
	"testing"

	"github.com/vinoprice/pricesync/internal/domain"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$19.99", 19.99, true},
		{"1,299.00 USD", 1299.00, true},
		{"from 45", 45, true},
		{"599", 599, true},
		{"no digits here", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, ok := ParsePrice(c.in)
		if ok != c.ok {
			t.Fatalf("ParsePrice(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCleanSmallSampleUnchanged(t *testing.T) {
	in := []float64{100, 5, 900, 42}

	got := Clean(in)
	if len(got) != len(in) {
		t.Fatalf("Clean returned %d prices, want %d (untrimmed)", len(got), len(in))
	}
	// small samples must come back in original order too
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("Clean modified small sample at %d: got %v want %v", i, got[i], in[i])
		}
	}
}

func TestCleanTrimsExtremes(t *testing.T) {
	// 10 values 10..100: lo = 1, hi = 8 -> sorted[1:8]
	in := []float64{100, 10, 20, 30, 40, 50, 60, 70, 80, 90}

	got := Clean(in)
	if len(got) != 7 {
		t.Fatalf("Clean returned %d prices, want 7", len(got))
	}
	if got[0] != 20 || got[len(got)-1] != 80 {
		t.Fatalf("Clean kept [%v..%v], want [20..80]", got[0], got[len(got)-1])
	}

	// input must not be mutated
	if in[0] != 100 {
		t.Fatalf("Clean mutated its input")
	}
}

func TestModeSinglePriceReturnedAsIs(t *testing.T) {
	got := Mode([]float64{33.333}, 5)
	if got == nil || *got != 33.333 {
		t.Fatalf("Mode single = %v, want 33.333 unrounded", got)
	}
}

func TestModePicksBiggestBin(t *testing.T) {
	// bin [20,25) holds three values, bin [95,100) one
	got := Mode([]float64{21, 22, 23, 99}, 5)
	if got == nil {
		t.Fatalf("Mode returned nil")
	}
	if *got != 22 {
		t.Fatalf("Mode = %v, want 22 (mean of 21,22,23)", *got)
	}
}

func TestModeTieGoesToFirstBin(t *testing.T) {
	got := Mode([]float64{10, 11, 90, 91}, 5)
	if got == nil {
		t.Fatalf("Mode returned nil")
	}
	if *got != 10.5 {
		t.Fatalf("Mode tie = %v, want 10.5 (first-encountered bin)", *got)
	}
}

func TestModeEmpty(t *testing.T) {
	if got := Mode(nil, 5); got != nil {
		t.Fatalf("Mode(nil) = %v, want nil", *got)
	}
}

func TestMedian(t *testing.T) {
	odd := Median([]float64{3, 1, 2})
	if odd == nil || *odd != 2 {
		t.Fatalf("Median odd = %v, want 2", odd)
	}

	even := Median([]float64{4, 1, 3, 2})
	if even == nil || *even != 2.5 {
		t.Fatalf("Median even = %v, want 2.5", even)
	}

	if Median(nil) != nil {
		t.Fatalf("Median(nil) should be nil")
	}
}

func TestAggregateCountsSources(t *testing.T) {
	obs := []domain.PriceObservation{
		{Source: domain.SourceShopping, Price: 21},
		{Source: domain.SourceShopping, Price: 22},
		{Source: domain.SourceStorefront, Price: 23},
	}

	sig := Aggregate(obs, 5)

	if len(sig.RawPrices) != 3 {
		t.Fatalf("RawPrices = %v, want 3 entries", sig.RawPrices)
	}
	if sig.SourceCounts[domain.SourceShopping] != 2 || sig.SourceCounts[domain.SourceStorefront] != 1 {
		t.Fatalf("SourceCounts = %v", sig.SourceCounts)
	}
	if sig.ModePrice == nil || *sig.ModePrice != 22 {
		t.Fatalf("ModePrice = %v, want 22", sig.ModePrice)
	}
	if sig.MedianPrice == nil || *sig.MedianPrice != 22 {
		t.Fatalf("MedianPrice = %v, want 22", sig.MedianPrice)
	}
}
