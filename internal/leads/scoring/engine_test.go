package scoring

import (
	"testing"
	"time"

	"realestate_crm_backend/internal/properties"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, scheme TierScheme) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultWeights, scheme, nil)
	if err != nil {
		t.Fatalf("unexpected engine construction error: %v", err)
	}
	engine.now = func() time.Time { return testNow }
	return engine
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func snapshotOf(prices ...float64) []properties.SnapshotEntry {
	entries := make([]properties.SnapshotEntry, 0, len(prices))
	for _, price := range prices {
		entries = append(entries, properties.SnapshotEntry{
			Price:        price,
			Location:     "Baner, Pune",
			PropertyType: "apartment",
			Status:       "active",
		})
	}
	return entries
}

func TestNewEngineRejectsWeightsNotSummingToOne(t *testing.T) {
	bad := DefaultWeights
	bad.BudgetMatch = 0.5
	if _, err := NewEngine(bad, FourTierScheme, nil); err == nil {
		t.Fatal("expected error for weights summing above 1.0")
	}
}

func TestBudgetMatchCountsInventoryWithinTwentyPercentBand(t *testing.T) {
	// Band for a 5,000,000 budget is 4,000,000 to 6,000,000. One of the two
	// listings falls inside it.
	score := scoreBudgetMatch(floatPtr(5_000_000), snapshotOf(4_800_000, 9_000_000))
	if score != 50.0 {
		t.Fatalf("expected budget match 50.0, got %v", score)
	}
}

func TestBudgetMatchFloorsAtTwentyWhenNothingMatches(t *testing.T) {
	score := scoreBudgetMatch(floatPtr(100_000), snapshotOf(4_800_000, 9_000_000))
	if score != 20 {
		t.Fatalf("expected no-match floor of 20, got %v", score)
	}
}

func TestBudgetMatchNeutralOnMissingBudgetOrEmptyInventory(t *testing.T) {
	if score := scoreBudgetMatch(nil, snapshotOf(4_800_000)); score != neutralScore {
		t.Fatalf("expected neutral for nil budget, got %v", score)
	}
	if score := scoreBudgetMatch(floatPtr(5_000_000), nil); score != neutralScore {
		t.Fatalf("expected neutral for empty inventory, got %v", score)
	}
	if score := scoreBudgetMatch(floatPtr(-1), snapshotOf(4_800_000)); score != neutralScore {
		t.Fatalf("expected neutral for non-positive budget, got %v", score)
	}
}

func TestUrgencyBaseTable(t *testing.T) {
	cases := []struct {
		urgency string
		want    float64
	}{
		{"urgent", 100},
		{"high", 80},
		{"medium", 60},
		{"low", 40},
		{"", 60},
		{"unknown-label", 60},
		{" URGENT ", 100},
	}
	for _, tc := range cases {
		if got := scoreUrgency(tc.urgency, nil); got != tc.want {
			t.Fatalf("urgency %q: expected %v, got %v", tc.urgency, tc.want, got)
		}
	}
}

func TestUrgencyTimelineKeywordOverridesDeclaredLabel(t *testing.T) {
	cases := []struct {
		timeline string
		want     float64
	}{
		{"need something ASAP", 100},
		{"looking to move next week", 85},
		{"sometime this month", 70},
		{"maybe in 3 months", 40},
	}
	for _, tc := range cases {
		// Declared urgency is low; the written timeline wins.
		if got := scoreUrgency("low", strPtr(tc.timeline)); got != tc.want {
			t.Fatalf("timeline %q: expected override %v, got %v", tc.timeline, tc.want, got)
		}
	}

	// A timeline without recognized keywords falls back to the label.
	if got := scoreUrgency("high", strPtr("whenever it suits")); got != 80 {
		t.Fatalf("expected label score 80 for unrecognized timeline, got %v", got)
	}
}

func TestLocationPreferenceSubstringMatchWithFloor(t *testing.T) {
	snapshot := []properties.SnapshotEntry{
		{Price: 1, Location: "Baner, Pune", PropertyType: "apartment"},
		{Price: 1, Location: "Wakad, Pune", PropertyType: "villa"},
		{Price: 1, Location: "Andheri, Mumbai", PropertyType: "apartment"},
	}

	if got := scoreLocationPreference(strPtr("pune"), snapshot); got != capScore(2.0/3.0*100) {
		t.Fatalf("expected two-thirds match, got %v", got)
	}
	if got := scoreLocationPreference(strPtr("goa"), snapshot); got != 30 {
		t.Fatalf("expected zero-match floor of 30, got %v", got)
	}
	if got := scoreLocationPreference(strPtr("  "), snapshot); got != neutralScore {
		t.Fatalf("expected neutral for blank preference, got %v", got)
	}
}

func TestPropertyTypeSubstringMatchWithFloor(t *testing.T) {
	snapshot := []properties.SnapshotEntry{
		{Price: 1, Location: "Pune", PropertyType: "apartment"},
		{Price: 1, Location: "Pune", PropertyType: "row house"},
	}

	if got := scorePropertyType(strPtr("Apartment"), snapshot); got != 50 {
		t.Fatalf("expected half match 50, got %v", got)
	}
	if got := scorePropertyType(strPtr("castle"), snapshot); got != 30 {
		t.Fatalf("expected zero-match floor of 30, got %v", got)
	}
}

func TestTimelineScoreIsNeutralWithoutKeywords(t *testing.T) {
	if got := scoreTimeline(strPtr("still deciding")); got != neutralScore {
		t.Fatalf("expected neutral for unrecognized timeline, got %v", got)
	}
	if got := scoreTimeline(nil); got != neutralScore {
		t.Fatalf("expected neutral for nil timeline, got %v", got)
	}
	if got := scoreTimeline(strPtr("asap please")); got != 100 {
		t.Fatalf("expected 100 for asap, got %v", got)
	}
}

func TestCommunicationRecencyBuckets(t *testing.T) {
	created := testNow.Add(-30 * 24 * time.Hour)
	cases := []struct {
		daysAgo float64
		want    float64
	}{
		{0.5, 100},
		{1, 100},
		{2, 80},
		{5, 60},
		{10, 40},
		{20, 20},
	}
	for _, tc := range cases {
		contact := testNow.Add(-time.Duration(tc.daysAgo * 24 * float64(time.Hour)))
		if got := scoreCommunication(&contact, created, testNow); got != tc.want {
			t.Fatalf("%v days ago: expected %v, got %v", tc.daysAgo, tc.want, got)
		}
	}

	if got := scoreCommunication(nil, created, testNow); got != neutralScore {
		t.Fatalf("expected neutral for never-contacted lead, got %v", got)
	}
}

func TestCalculateAllFactorsBounded(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)

	inputs := []LeadInput{
		{},
		{Budget: floatPtr(5_000_000), Urgency: "urgent", Timeline: strPtr("asap"), CreatedAt: testNow},
		{Budget: floatPtr(1), Urgency: "low", LocationPreference: strPtr("nowhere"), CreatedAt: testNow},
	}
	snapshots := [][]properties.SnapshotEntry{nil, snapshotOf(4_800_000, 9_000_000)}

	for _, input := range inputs {
		for _, snapshot := range snapshots {
			result := engine.Calculate(input, snapshot)
			if result.TotalScore < 0 || result.TotalScore > 100 {
				t.Fatalf("total score out of bounds: %v", result.TotalScore)
			}
			for factor, score := range result.ScoreBreakdown {
				if score < 0 || score > 100 {
					t.Fatalf("factor %s out of bounds: %v", factor, score)
				}
			}
			if len(result.ScoreBreakdown) != 6 {
				t.Fatalf("expected six factors, got %d", len(result.ScoreBreakdown))
			}
			if result.Version != scoreVersion {
				t.Fatalf("expected version %s, got %s", scoreVersion, result.Version)
			}
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)
	contact := testNow.Add(-2 * 24 * time.Hour)
	input := LeadInput{
		Budget:                 floatPtr(5_000_000),
		Urgency:                "high",
		Timeline:               strPtr("this month"),
		LocationPreference:     strPtr("pune"),
		PropertyTypePreference: strPtr("apartment"),
		LastContactDate:        &contact,
		CreatedAt:              testNow.Add(-10 * 24 * time.Hour),
	}
	snapshot := snapshotOf(4_800_000, 5_500_000, 9_000_000)

	first := engine.Calculate(input, snapshot)
	second := engine.Calculate(input, snapshot)

	if first.TotalScore != second.TotalScore {
		t.Fatalf("expected identical totals, got %v and %v", first.TotalScore, second.TotalScore)
	}
	for factor, score := range first.ScoreBreakdown {
		if second.ScoreBreakdown[factor] != score {
			t.Fatalf("factor %s differs across runs: %v vs %v", factor, score, second.ScoreBreakdown[factor])
		}
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatal("expected identical recommendations across runs")
	}
}

func TestCalculateEmptyLeadScoresNeutrally(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)
	result := engine.Calculate(LeadInput{CreatedAt: testNow}, nil)

	// Every factor neutral except urgency, which defaults to 60:
	// 0.25*50 + 0.20*60 + 0.15*50 + 0.15*50 + 0.15*50 + 0.10*50 = 52.
	if result.TotalScore != 52 {
		t.Fatalf("expected neutral total 52, got %v", result.TotalScore)
	}
	if result.Quality != "fair" {
		t.Fatalf("expected fair, got %s", result.Quality)
	}
	if result.Priority != "lukewarm" {
		t.Fatalf("expected lukewarm, got %s", result.Priority)
	}
}

func TestCalculateStrongLeadIsWellQualified(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)
	contact := testNow.Add(-2 * time.Hour)
	input := LeadInput{
		Budget:                 floatPtr(5_000_000),
		Urgency:                "urgent",
		Timeline:               strPtr("asap"),
		LocationPreference:     strPtr("pune"),
		PropertyTypePreference: strPtr("apartment"),
		LastContactDate:        &contact,
		CreatedAt:              testNow.Add(-24 * time.Hour),
	}

	result := engine.Calculate(input, snapshotOf(5_000_000, 5_200_000))

	if result.TotalScore != 100 {
		t.Fatalf("expected perfect total, got %v", result.TotalScore)
	}
	if result.Quality != "excellent" || result.Priority != "hot" {
		t.Fatalf("expected excellent/hot, got %s/%s", result.Quality, result.Priority)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != wellQualifiedMessage {
		t.Fatalf("expected only the well-qualified message, got %v", result.Recommendations)
	}
}

func TestCalculateWeakLeadRecommendationOrder(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)
	contact := testNow.Add(-30 * 24 * time.Hour)
	input := LeadInput{
		Budget:                 floatPtr(100_000),
		Urgency:                "low",
		Timeline:               strPtr("6 months"),
		LocationPreference:     strPtr("nowhere"),
		PropertyTypePreference: strPtr("castle"),
		LastContactDate:        &contact,
		CreatedAt:              testNow.Add(-60 * 24 * time.Hour),
	}

	result := engine.Calculate(input, snapshotOf(4_800_000, 9_000_000))

	// budget 20, urgency 40 (timeline "6 months" overrides to 40 anyway),
	// location 30, type 30, timeline 40, communication 20.
	expectedTotal := round2(0.25*20 + 0.20*40 + 0.15*30 + 0.15*30 + 0.15*40 + 0.10*20)
	if result.TotalScore != expectedTotal {
		t.Fatalf("expected total %v, got %v", expectedTotal, result.TotalScore)
	}
	if result.Quality != "poor" || result.Priority != "cold" {
		t.Fatalf("expected poor/cold, got %s/%s", result.Quality, result.Priority)
	}

	expected := []string{
		recommendationTexts[FactorBudgetMatch],
		recommendationTexts[FactorUrgency],
		recommendationTexts[FactorLocationPreference],
		recommendationTexts[FactorPropertyType],
		recommendationTexts[FactorCommunication],
	}
	if len(result.Recommendations) != len(expected) {
		t.Fatalf("expected %d recommendations, got %d: %v", len(expected), len(result.Recommendations), result.Recommendations)
	}
	for i, want := range expected {
		if result.Recommendations[i] != want {
			t.Fatalf("recommendation %d: expected %q, got %q", i, want, result.Recommendations[i])
		}
	}
}

func TestRecommendationsNeverMentionTimeline(t *testing.T) {
	// Timeline below threshold, every other factor healthy.
	breakdown := map[string]float64{
		FactorBudgetMatch:        80,
		FactorUrgency:            80,
		FactorLocationPreference: 80,
		FactorPropertyType:       80,
		FactorTimeline:           40,
		FactorCommunication:      80,
	}
	recommendations := buildRecommendations(breakdown)
	if len(recommendations) != 1 || recommendations[0] != wellQualifiedMessage {
		t.Fatalf("timeline alone must not trigger a recommendation, got %v", recommendations)
	}
}

func TestFallbackScoring(t *testing.T) {
	engine := newTestEngine(t, FourTierScheme)
	result := engine.Fallback(testNow)

	if result.TotalScore != neutralScore {
		t.Fatalf("expected fallback total %v, got %v", neutralScore, result.TotalScore)
	}
	if result.Quality != FourTierScheme.Fallback {
		t.Fatalf("expected fallback quality %q, got %q", FourTierScheme.Fallback, result.Quality)
	}
	if len(result.ScoreBreakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %v", result.ScoreBreakdown)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != "Unable to calculate score" {
		t.Fatalf("unexpected fallback recommendations: %v", result.Recommendations)
	}
}
