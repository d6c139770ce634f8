package scoring

import "fmt"

// TierScheme maps a total score to a discrete quality label through ordered
// thresholds. Two schemes are in production use; which one applies is a
// deployment decision, so both live here behind configuration rather than as
// duplicated scorers.
type TierScheme struct {
	Name string `yaml:"name"`
	// Thresholds are checked top-down; the first entry whose Min the score
	// meets wins. Must be sorted by Min descending.
	Thresholds []TierThreshold `yaml:"thresholds"`
	// Floor is the label for scores below every threshold.
	Floor string `yaml:"floor"`
	// Fallback is the mid-tier label used by the degraded scoring path.
	Fallback string `yaml:"fallback"`
}

// TierThreshold is a single quality cut-off.
type TierThreshold struct {
	Min     float64 `yaml:"min"`
	Quality string  `yaml:"quality"`
}

// FourTierScheme is the classic excellent/good/fair/poor ladder.
var FourTierScheme = TierScheme{
	Name: "four_tier",
	Thresholds: []TierThreshold{
		{Min: 80, Quality: "excellent"},
		{Min: 65, Quality: "good"},
		{Min: 45, Quality: "fair"},
	},
	Floor:    "poor",
	Fallback: "fair",
}

// FiveTierScheme is the finer-grained ladder used by the dashboard deployment.
var FiveTierScheme = TierScheme{
	Name: "five_tier",
	Thresholds: []TierThreshold{
		{Min: 90, Quality: "premium"},
		{Min: 80, Quality: "high"},
		{Min: 70, Quality: "good"},
		{Min: 60, Quality: "fair"},
		{Min: 50, Quality: "average"},
	},
	Floor:    "low",
	Fallback: "average",
}

// SchemeByName resolves a configured scheme name.
func SchemeByName(name string) (TierScheme, error) {
	switch name {
	case "", FourTierScheme.Name:
		return FourTierScheme, nil
	case FiveTierScheme.Name:
		return FiveTierScheme, nil
	default:
		return TierScheme{}, fmt.Errorf("unknown tier scheme %q", name)
	}
}

// Quality maps a total score to its tier label.
func (s TierScheme) Quality(total float64) string {
	for _, threshold := range s.Thresholds {
		if total >= threshold.Min {
			return threshold.Quality
		}
	}
	return s.Floor
}

func (s TierScheme) validate() error {
	if len(s.Thresholds) == 0 {
		return fmt.Errorf("tier scheme %q has no thresholds", s.Name)
	}
	prev := s.Thresholds[0].Min
	for _, threshold := range s.Thresholds[1:] {
		if threshold.Min >= prev {
			return fmt.Errorf("tier scheme %q thresholds must be strictly descending", s.Name)
		}
		prev = threshold.Min
	}
	if s.Floor == "" || s.Fallback == "" {
		return fmt.Errorf("tier scheme %q needs floor and fallback labels", s.Name)
	}
	return nil
}
