package sources

import (
	"math"
	"testing"
)

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("Chateau Margaux", "chateau margaux"); got != 1 {
		t.Fatalf("Similarity identical (case-insensitive) = %v, want 1", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Fatalf("Similarity disjoint = %v, want 0", got)
	}
}

func TestSimilarityPartial(t *testing.T) {
	// matches "bcd" (3 chars): 2*3 / 8 = 0.75
	got := Similarity("abcd", "bcde")
	if math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("Similarity(abcd, bcde) = %v, want 0.75", got)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("Similarity empty = %v, want 1", got)
	}
	if got := Similarity("wine", ""); got != 0 {
		t.Fatalf("Similarity vs empty = %v, want 0", got)
	}
}

func TestSimilarityTitleMatchAboveThreshold(t *testing.T) {
	got := Similarity("Chateau Talbot 2016", "Chateau Talbot Saint-Julien 2016")
	if got <= 0.4 {
		t.Fatalf("near-identical titles scored %v, want > 0.4", got)
	}
}
