package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

type stubScoringConfig struct {
	scheme      string
	profilePath string
}

func (c stubScoringConfig) GetScoringTierScheme() string  { return c.scheme }
func (c stubScoringConfig) GetScoringProfilePath() string { return c.profilePath }

func TestNewEngineFromConfigUsesConfiguredScheme(t *testing.T) {
	engine, err := NewEngineFromConfig(stubScoringConfig{scheme: "five_tier"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.TierScheme().Name != "five_tier" {
		t.Fatalf("expected five_tier, got %s", engine.TierScheme().Name)
	}
}

func TestNewEngineFromConfigRejectsUnknownScheme(t *testing.T) {
	if _, err := NewEngineFromConfig(stubScoringConfig{scheme: "seven_tier"}, nil); err == nil {
		t.Fatal("expected error for unknown tier scheme")
	}
}

func TestNewEngineFromConfigAppliesProfileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	profile := `
tier_scheme: five_tier
weights:
  budget_match: 0.30
  urgency: 0.20
  location_preference: 0.15
  property_type: 0.15
  timeline: 0.10
  communication: 0.10
`
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	engine, err := NewEngineFromConfig(stubScoringConfig{scheme: "four_tier", profilePath: path}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.TierScheme().Name != "five_tier" {
		t.Fatalf("profile scheme override not applied, got %s", engine.TierScheme().Name)
	}
	if engine.weights.BudgetMatch != 0.30 {
		t.Fatalf("profile weights not applied, got %v", engine.weights.BudgetMatch)
	}
}

func TestNewEngineFromConfigRejectsProfileWeightsNotSummingToOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	profile := `
weights:
  budget_match: 0.90
  urgency: 0.20
  location_preference: 0.15
  property_type: 0.15
  timeline: 0.10
  communication: 0.10
`
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	if _, err := NewEngineFromConfig(stubScoringConfig{profilePath: path}, nil); err == nil {
		t.Fatal("expected error for profile weights summing above 1.0")
	}
}
