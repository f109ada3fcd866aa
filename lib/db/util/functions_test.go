package util

import (
	"fmt"
	"testing"
)

func TestHashString(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		seed uint64
		same bool
	}{
		{"identical", "object-1", "object-1", 7, true},
		{"different", "object-1", "object-2", 7, false},
		{"empty", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashString(tt.a, tt.seed) == HashString(tt.b, tt.seed)
			if got != tt.same {
				t.Errorf("HashString(%q) == HashString(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}

	if HashString("x", 1) == HashString("x", 2) {
		t.Errorf("Seed should change the hash")
	}
}

func TestHashStringDistribution(t *testing.T) {
	const buckets = 16
	counts := make([]int, buckets)
	seed := GenerateSeed()
	for i := 0; i < 16_000; i++ {
		h := uint64(HashString(fmt.Sprintf("obj-%d", i), seed)) >> 7
		counts[h%buckets]++
	}
	for i, c := range counts {
		if c < 500 || c > 1500 {
			t.Errorf("Bucket %d has %d entries, distribution looks broken", i, c)
		}
	}
}
