package scoring

import (
	"fmt"
	"os"

	"realestate_crm_backend/platform/config"
	"realestate_crm_backend/platform/logger"

	"gopkg.in/yaml.v3"
)

// Profile is the externalized scoring configuration. Operators can override
// the weight table or tier thresholds without a deploy by pointing
// SCORING_PROFILE_PATH at a YAML file.
type Profile struct {
	TierScheme string   `yaml:"tier_scheme"`
	Weights    *Weights `yaml:"weights"`
	// Tiers optionally replaces the named scheme's thresholds entirely.
	Tiers *TierScheme `yaml:"tiers"`
}

// LoadProfile reads a scoring profile from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scoring profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse scoring profile: %w", err)
	}
	return profile, nil
}

// NewEngineFromConfig builds the engine from application configuration: the
// configured tier scheme, optionally overridden by a profile file.
func NewEngineFromConfig(cfg config.ScoringConfig, log *logger.Logger) (*Engine, error) {
	weights := DefaultWeights
	scheme, err := SchemeByName(cfg.GetScoringTierScheme())
	if err != nil {
		return nil, err
	}

	if path := cfg.GetScoringProfilePath(); path != "" {
		profile, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		if profile.TierScheme != "" {
			scheme, err = SchemeByName(profile.TierScheme)
			if err != nil {
				return nil, err
			}
		}
		if profile.Weights != nil {
			weights = *profile.Weights
		}
		if profile.Tiers != nil {
			scheme = *profile.Tiers
		}
	}

	return NewEngine(weights, scheme, log)
}
