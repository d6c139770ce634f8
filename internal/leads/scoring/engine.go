// Package scoring implements the deterministic lead qualification engine: six
// independent factor scorers combined through a fixed weight table into a
// total score, a quality tier, a priority label, and improvement
// recommendations.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"realestate_crm_backend/internal/properties"
	"realestate_crm_backend/platform/logger"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// neutralScore is returned by every factor when its inputs are missing.
	// Absent data must never penalize or reward a lead.
	neutralScore = 50.0

	// recommendationThreshold is the sub-score below which a factor earns an
	// improvement recommendation.
	recommendationThreshold = 50.0
)

// Factor keys. These are the fixed score_breakdown keys and are part of the
// persisted scoring payload; do not rename.
const (
	FactorBudgetMatch        = "budget_match"
	FactorUrgency            = "urgency"
	FactorLocationPreference = "location_preference"
	FactorPropertyType       = "property_type"
	FactorTimeline           = "timeline"
	FactorCommunication      = "communication"
)

// LeadInput carries the lead fields the engine reads. The engine is pure: it
// never touches storage and never fails on missing fields.
type LeadInput struct {
	Budget                 *float64
	Urgency                string
	Timeline               *string
	LocationPreference     *string
	PropertyTypePreference *string
	LastContactDate        *time.Time
	CreatedAt              time.Time
}

// LeadScoring is the value object embedded on a lead. It is recomputed as a
// whole by Calculate and never mutated field by field.
type LeadScoring struct {
	TotalScore      float64            `json:"total_score"`
	Quality         string             `json:"quality"`
	Priority        string             `json:"priority"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`
	Recommendations []string           `json:"recommendations"`
	Version         string             `json:"version"`
	LastCalculated  time.Time          `json:"last_calculated"`
}

// Weights is the factor weight table. The six weights must sum to exactly 1.0.
type Weights struct {
	BudgetMatch        float64 `yaml:"budget_match"`
	Urgency            float64 `yaml:"urgency"`
	LocationPreference float64 `yaml:"location_preference"`
	PropertyType       float64 `yaml:"property_type"`
	Timeline           float64 `yaml:"timeline"`
	Communication      float64 `yaml:"communication"`
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.BudgetMatch + w.Urgency + w.LocationPreference + w.PropertyType + w.Timeline + w.Communication
}

// DefaultWeights is the production weight table.
var DefaultWeights = Weights{
	BudgetMatch:        0.25,
	Urgency:            0.20,
	LocationPreference: 0.15,
	PropertyType:       0.15,
	Timeline:           0.15,
	Communication:      0.10,
}

// Engine computes lead scores.
type Engine struct {
	weights Weights
	scheme  TierScheme
	log     *logger.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewEngine creates a scoring engine after validating the weight table.
// An invalid weight table is a deployment error, caught at startup.
func NewEngine(weights Weights, scheme TierScheme, log *logger.Logger) (*Engine, error) {
	if math.Abs(weights.Sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("scoring weights must sum to 1.0, got %v", weights.Sum())
	}
	if err := scheme.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		weights: weights,
		scheme:  scheme,
		log:     log,
		now:     time.Now,
	}, nil
}

// Calculate runs all six factor scorers against the lead and the property
// snapshot and combines them into a LeadScoring. It never returns an error:
// any internal failure resolves to the degraded fallback so lead writes are
// never blocked on scoring.
func (e *Engine) Calculate(lead LeadInput, snapshot []properties.SnapshotEntry) (result LeadScoring) {
	now := e.now().UTC()

	defer func() {
		if r := recover(); r != nil {
			if e.log != nil {
				e.log.ScoringDegraded("", fmt.Sprintf("panic: %v", r))
			}
			result = e.Fallback(now)
		}
	}()

	breakdown := map[string]float64{
		FactorBudgetMatch:        scoreBudgetMatch(lead.Budget, snapshot),
		FactorUrgency:            scoreUrgency(lead.Urgency, lead.Timeline),
		FactorLocationPreference: scoreLocationPreference(lead.LocationPreference, snapshot),
		FactorPropertyType:       scorePropertyType(lead.PropertyTypePreference, snapshot),
		FactorTimeline:           scoreTimeline(lead.Timeline),
		FactorCommunication:      scoreCommunication(lead.LastContactDate, lead.CreatedAt, now),
	}

	total := e.weights.BudgetMatch*breakdown[FactorBudgetMatch] +
		e.weights.Urgency*breakdown[FactorUrgency] +
		e.weights.LocationPreference*breakdown[FactorLocationPreference] +
		e.weights.PropertyType*breakdown[FactorPropertyType] +
		e.weights.Timeline*breakdown[FactorTimeline] +
		e.weights.Communication*breakdown[FactorCommunication]
	total = round2(total)

	return LeadScoring{
		TotalScore:      total,
		Quality:         e.scheme.Quality(total),
		Priority:        priorityFor(total),
		ScoreBreakdown:  breakdown,
		Recommendations: buildRecommendations(breakdown),
		Version:         scoreVersion,
		LastCalculated:  now,
	}
}

// Fallback is the degraded-but-valid scoring used when calculation fails or
// cannot run (e.g. persistence of a lead must proceed despite a scorer bug).
func (e *Engine) Fallback(now time.Time) LeadScoring {
	return LeadScoring{
		TotalScore:      neutralScore,
		Quality:         e.scheme.Fallback,
		Priority:        priorityFor(neutralScore),
		ScoreBreakdown:  map[string]float64{},
		Recommendations: []string{"Unable to calculate score"},
		Version:         scoreVersion,
		LastCalculated:  now.UTC(),
	}
}

// TierScheme returns the active tier scheme.
func (e *Engine) TierScheme() TierScheme {
	return e.scheme
}

// =============================================================================
// Factor scorers. Each is pure, returns a value in [0,100] and degrades to
// the neutral 50 on missing input.
// =============================================================================

// scoreBudgetMatch measures how much of the active inventory is priced within
// ±20% of the lead's budget.
func scoreBudgetMatch(budget *float64, snapshot []properties.SnapshotEntry) float64 {
	if budget == nil || *budget <= 0 || len(snapshot) == 0 {
		return neutralScore
	}

	low := *budget * 0.8
	high := *budget * 1.2
	matching := 0
	for _, entry := range snapshot {
		if entry.Price >= low && entry.Price <= high {
			matching++
		}
	}

	if matching == 0 {
		return 20
	}
	return capScore(float64(matching) / float64(len(snapshot)) * 100)
}

// urgencyBaseScores maps the declared urgency label to its base score.
var urgencyBaseScores = map[string]float64{
	"urgent": 100,
	"high":   80,
	"medium": 60,
	"low":    40,
}

// scoreUrgency scores the declared urgency label, letting explicit timeline
// language override it: a lead who writes "asap" is urgent no matter what the
// dropdown says.
func scoreUrgency(urgency string, timeline *string) float64 {
	if timeline != nil {
		if score, ok := timelineKeywordScore(*timeline); ok {
			return score
		}
	}

	if score, ok := urgencyBaseScores[strings.ToLower(strings.TrimSpace(urgency))]; ok {
		return score
	}
	return 60
}

// scoreLocationPreference measures what fraction of the inventory matches the
// preferred location by case-insensitive substring.
func scoreLocationPreference(preferred *string, snapshot []properties.SnapshotEntry) float64 {
	if preferred == nil || strings.TrimSpace(*preferred) == "" || len(snapshot) == 0 {
		return neutralScore
	}

	needle := strings.ToLower(strings.TrimSpace(*preferred))
	matching := 0
	for _, entry := range snapshot {
		if strings.Contains(strings.ToLower(entry.Location), needle) {
			matching++
		}
	}

	// A zero-match floor of 30 avoids over-penalizing sparse inventory.
	if matching == 0 {
		return 30
	}
	return capScore(float64(matching) / float64(len(snapshot)) * 100)
}

// scorePropertyType mirrors the location scorer over the property type field.
func scorePropertyType(preferred *string, snapshot []properties.SnapshotEntry) float64 {
	if preferred == nil || strings.TrimSpace(*preferred) == "" || len(snapshot) == 0 {
		return neutralScore
	}

	needle := strings.ToLower(strings.TrimSpace(*preferred))
	matching := 0
	for _, entry := range snapshot {
		if strings.Contains(strings.ToLower(entry.PropertyType), needle) {
			matching++
		}
	}

	if matching == 0 {
		return 30
	}
	return capScore(float64(matching) / float64(len(snapshot)) * 100)
}

// scoreTimeline is the pure keyword feasibility score, independent of the
// urgency label.
func scoreTimeline(timeline *string) float64 {
	if timeline == nil || strings.TrimSpace(*timeline) == "" {
		return neutralScore
	}
	if score, ok := timelineKeywordScore(*timeline); ok {
		return score
	}
	return neutralScore
}

// scoreCommunication scores contact recency: fresh touches keep leads warm.
func scoreCommunication(lastContact *time.Time, createdAt time.Time, now time.Time) float64 {
	if lastContact == nil || createdAt.IsZero() {
		return neutralScore
	}

	days := now.Sub(*lastContact).Hours() / 24
	switch {
	case days <= 1:
		return 100
	case days <= 3:
		return 80
	case days <= 7:
		return 60
	case days <= 14:
		return 40
	default:
		return 20
	}
}

// timelineKeywordBuckets map timeline language to scores, checked in order of
// decreasing urgency. Substring match, case-insensitive.
var timelineKeywordBuckets = []struct {
	keywords []string
	score    float64
}{
	{[]string{"asap", "immediately", "urgent", "today", "tomorrow"}, 100},
	{[]string{"this week", "next week", "within a week"}, 85},
	{[]string{"this month", "next month", "within a month"}, 70},
	{[]string{"3 months", "6 months", "next year"}, 40},
}

func timelineKeywordScore(timeline string) (float64, bool) {
	lower := strings.ToLower(timeline)
	for _, bucket := range timelineKeywordBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lower, keyword) {
				return bucket.score, true
			}
		}
	}
	return 0, false
}

// =============================================================================
// Recommendations
// =============================================================================

// recommendationOrder fixes the order factors are inspected for suggestions.
var recommendationOrder = []string{
	FactorBudgetMatch,
	FactorUrgency,
	FactorLocationPreference,
	FactorPropertyType,
	FactorCommunication,
}

var recommendationTexts = map[string]string{
	FactorBudgetMatch:        "Budget does not match current inventory; discuss alternative price ranges",
	FactorUrgency:            "Low urgency; schedule a follow-up to establish a concrete timeline",
	FactorLocationPreference: "Few listings match the preferred location; suggest nearby areas",
	FactorPropertyType:       "Few listings match the preferred property type; present comparable options",
	FactorCommunication:      "No recent contact; reach out to re-engage this lead",
}

const wellQualifiedMessage = "Lead is well-qualified and ready for engagement."

func buildRecommendations(breakdown map[string]float64) []string {
	recommendations := make([]string, 0, len(recommendationOrder))
	for _, factor := range recommendationOrder {
		if breakdown[factor] < recommendationThreshold {
			recommendations = append(recommendations, recommendationTexts[factor])
		}
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, wellQualifiedMessage)
	}
	return recommendations
}

// =============================================================================
// Helpers
// =============================================================================

// priorityFor derives the routing label agents see on the board.
func priorityFor(total float64) string {
	switch {
	case total >= 80:
		return "hot"
	case total >= 60:
		return "warm"
	case total >= 40:
		return "lukewarm"
	default:
		return "cold"
	}
}

func capScore(value float64) float64 {
	if value > 100 {
		return 100
	}
	if value < 0 {
		return 0
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
