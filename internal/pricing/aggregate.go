// Package pricing holds the pure computation core of the engine: observation
// cleaning, the mode/median estimators, and the pricing policy. Nothing in
// this package performs I/O.
package pricing

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vinoprice/pricesync/internal/domain"
)

// Aggregation tunables. These mirror the calibrated values of the production
// pricing job; override per call where the signature allows.
const (
	// CleanMinSamples is the smallest sample that is safe to trim.
	CleanMinSamples = 5

	// Percentile cut applied by Clean.
	CleanTrimLow  = 0.15
	CleanTrimHigh = 0.85

	// DefaultBinSize groups prices into $5 buckets for the mode estimate.
	DefaultBinSize = 5.0
)

var priceToken = regexp.MustCompile(`\d+\.?\d*`)

// ParsePrice extracts the first numeric token from a raw price string,
// stripping thousands separators. Returns false when no number is present.
func ParsePrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	m := priceToken.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// Clean trims the 15-85 percentile slice out of a sorted copy of prices,
// discarding the extreme low/high observations that are usually mis-parsed or
// irrelevant listings. Inputs smaller than CleanMinSamples are returned
// unchanged: too small a sample to trim safely.
func Clean(prices []float64) []float64 {
	if len(prices) < CleanMinSamples {
		return prices
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	lo := int(float64(len(sorted)) * CleanTrimLow)
	hi := int(float64(len(sorted)) * CleanTrimHigh)

	return sorted[lo:hi]
}

// Mode buckets prices into binSize-wide bins and returns the mean of the most
// populated bin, rounded to 2 decimals. Ties go to the bin encountered first.
// Returns nil for an empty input.
func Mode(prices []float64, binSize float64) *float64 {
	if len(prices) == 0 {
		return nil
	}
	if len(prices) == 1 {
		v := prices[0]
		return &v
	}
	if binSize <= 0 {
		binSize = DefaultBinSize
	}

	bins := make(map[float64][]float64)
	var order []float64

	for _, p := range prices {
		key := math.Floor(p/binSize) * binSize
		if _, ok := bins[key]; !ok {
			order = append(order, key)
		}
		bins[key] = append(bins[key], p)
	}

	var bestKey float64
	bestCount := 0
	for _, key := range order {
		if n := len(bins[key]); n > bestCount {
			bestCount = n
			bestKey = key
		}
	}

	sum := 0.0
	for _, p := range bins[bestKey] {
		sum += p
	}
	mode := Round2(sum / float64(bestCount))
	return &mode
}

// Median is reported for diagnostics only; pricing decisions use Mode.
func Median(prices []float64) *float64 {
	if len(prices) == 0 {
		return nil
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	var m float64
	if n%2 == 1 {
		m = sorted[n/2]
	} else {
		m = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &m
}

// Aggregate reduces raw observations from all adapters for one query into a
// single signal: raw prices, cleaned prices, mode, median, per-source counts.
func Aggregate(obs []domain.PriceObservation, binSize float64) domain.AggregatedPriceSignal {
	sig := domain.AggregatedPriceSignal{
		SourceCounts: make(map[domain.PriceSource]int),
	}

	for _, o := range obs {
		sig.RawPrices = append(sig.RawPrices, o.Price)
		sig.SourceCounts[o.Source]++
	}

	sig.CleanedPrices = Clean(sig.RawPrices)
	sig.ModePrice = Mode(sig.CleanedPrices, binSize)
	sig.MedianPrice = Median(sig.CleanedPrices)
	return sig
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
