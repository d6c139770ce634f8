package scoring

import "testing"

func TestFourTierSchemeBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{100, "excellent"},
		{80, "excellent"},
		{79.99, "good"},
		{65, "good"},
		{64.99, "fair"},
		{45, "fair"},
		{44.99, "poor"},
		{0, "poor"},
	}
	for _, tc := range cases {
		if got := FourTierScheme.Quality(tc.total); got != tc.want {
			t.Fatalf("four_tier %v: expected %q, got %q", tc.total, tc.want, got)
		}
	}
}

func TestFiveTierSchemeBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{95, "premium"},
		{90, "premium"},
		{89.99, "high"},
		{80, "high"},
		{75, "good"},
		{65, "fair"},
		{55, "average"},
		{49.99, "low"},
		{0, "low"},
	}
	for _, tc := range cases {
		if got := FiveTierScheme.Quality(tc.total); got != tc.want {
			t.Fatalf("five_tier %v: expected %q, got %q", tc.total, tc.want, got)
		}
	}
}

func TestQualityIsMonotonicInScore(t *testing.T) {
	// A higher score must never map to a lower tier. Tier rank is the index
	// from the floor upward.
	for _, scheme := range []TierScheme{FourTierScheme, FiveTierScheme} {
		rank := func(quality string) int {
			if quality == scheme.Floor {
				return 0
			}
			for i, threshold := range scheme.Thresholds {
				if threshold.Quality == quality {
					return len(scheme.Thresholds) - i
				}
			}
			t.Fatalf("scheme %s returned unknown quality %q", scheme.Name, quality)
			return -1
		}

		prev := -1
		for score := 0.0; score <= 100; score += 0.5 {
			current := rank(scheme.Quality(score))
			if current < prev {
				t.Fatalf("scheme %s: quality rank decreased at score %v", scheme.Name, score)
			}
			prev = current
		}
	}
}

func TestSchemeByName(t *testing.T) {
	if scheme, err := SchemeByName(""); err != nil || scheme.Name != "four_tier" {
		t.Fatalf("expected default four_tier, got %v (%v)", scheme.Name, err)
	}
	if scheme, err := SchemeByName("five_tier"); err != nil || scheme.Name != "five_tier" {
		t.Fatalf("expected five_tier, got %v (%v)", scheme.Name, err)
	}
	if _, err := SchemeByName("three_tier"); err == nil {
		t.Fatal("expected error for unknown scheme name")
	}
}

func TestTierSchemeValidation(t *testing.T) {
	bad := TierScheme{
		Name: "unsorted",
		Thresholds: []TierThreshold{
			{Min: 50, Quality: "a"},
			{Min: 80, Quality: "b"},
		},
		Floor:    "c",
		Fallback: "a",
	}
	if err := bad.validate(); err == nil {
		t.Fatal("expected error for non-descending thresholds")
	}

	empty := TierScheme{Name: "empty", Floor: "x", Fallback: "x"}
	if err := empty.validate(); err == nil {
		t.Fatal("expected error for empty thresholds")
	}
}
