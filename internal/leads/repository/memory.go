package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory LeadsRepository used in tests and local
// tooling. It mirrors the SQL implementation's semantics, including the
// version-conflict behavior of Update.
type MemoryRepository struct {
	mu       sync.RWMutex
	leads    map[uuid.UUID]Lead
	activity []Activity

	// FailActivity forces AddActivity to fail, for testing the best-effort
	// activity path.
	FailActivity bool
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		leads: make(map[uuid.UUID]Lead),
	}
}

func (m *MemoryRepository) Create(_ context.Context, params CreateLeadParams) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	lead := Lead{
		ID:                     uuid.New(),
		AgentID:                params.AgentID,
		TeamID:                 params.TeamID,
		AssignedAgentID:        params.AssignedAgentID,
		Name:                   params.Name,
		Email:                  params.Email,
		Phone:                  params.Phone,
		Budget:                 params.Budget,
		PropertyTypePreference: params.PropertyTypePreference,
		LocationPreference:     params.LocationPreference,
		Timeline:               params.Timeline,
		Urgency:                params.Urgency,
		Source:                 params.Source,
		Status:                 params.Status,
		Score:                  params.Score,
		Scoring:                params.Scoring,
		LastContactDate:        params.LastContactDate,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID, scope Scope) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok || !inScope(lead, scope) {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *MemoryRepository) Update(_ context.Context, lead Lead) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.leads[lead.ID]
	if !ok {
		return Lead{}, ErrNotFound
	}
	if current.Version != lead.Version {
		return Lead{}, ErrVersionConflict
	}

	lead.Version++
	lead.CreatedAt = current.CreatedAt
	lead.AgentID = current.AgentID
	lead.TeamID = current.TeamID
	lead.UpdatedAt = time.Now().UTC()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *MemoryRepository) List(_ context.Context, params ListParams) ([]Lead, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Lead, 0)
	for _, lead := range m.leads {
		if matchesList(lead, params) {
			matched = append(matched, lead)
		}
	}

	// Highest score first, then newest, matching the SQL ordering.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if params.Offset >= total {
		return []Lead{}, total, nil
	}
	end := params.Offset + params.Limit
	if params.Limit <= 0 || end > total {
		end = total
	}
	return matched[params.Offset:end], total, nil
}

func (m *MemoryRepository) AddActivity(_ context.Context, leadID uuid.UUID, performedBy uuid.UUID, activityType string, description string, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailActivity {
		return context.DeadlineExceeded
	}

	m.activity = append(m.activity, Activity{
		ID:           uuid.New(),
		LeadID:       leadID,
		ActivityType: activityType,
		Description:  description,
		PerformedBy:  performedBy,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

func (m *MemoryRepository) ListActivity(_ context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	items := make([]Activity, 0)
	for i := len(m.activity) - 1; i >= 0 && len(items) < limit; i-- {
		if m.activity[i].LeadID == leadID {
			items = append(items, m.activity[i])
		}
	}
	return items, nil
}

func (m *MemoryRepository) GetStats(_ context.Context, scope Scope) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := startOfISOWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := Stats{ByStatus: map[string]int{
		"new": 0, "contacted": 0, "qualified": 0, "converted": 0, "lost": 0,
	}}
	for _, lead := range m.leads {
		if !inScope(lead, scope) {
			continue
		}
		stats.TotalLeads++
		stats.ByStatus[lead.Status]++
		if lead.Status == "converted" {
			stats.ConvertedCount++
			if lead.ConversionValue != nil {
				stats.ConvertedValueTotal += *lead.ConversionValue
			}
		}
		if !lead.CreatedAt.Before(dayStart) {
			stats.CreatedToday++
		}
		if !lead.CreatedAt.Before(weekStart) {
			stats.CreatedThisWeek++
		}
		if !lead.CreatedAt.Before(monthStart) {
			stats.CreatedThisMonth++
		}
	}

	if stats.ConvertedCount > 0 {
		stats.ConvertedValueAvg = stats.ConvertedValueTotal / float64(stats.ConvertedCount)
	}
	return stats, nil
}

func (m *MemoryRepository) ListStaleScores(_ context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stale := make([]Lead, 0)
	for _, lead := range m.leads {
		if lead.Status == "converted" || lead.Status == "lost" {
			continue
		}
		if lead.Scoring.LastCalculated.Before(cutoff) {
			stale = append(stale, lead)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].Scoring.LastCalculated.Before(stale[j].Scoring.LastCalculated)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func inScope(lead Lead, scope Scope) bool {
	if lead.AgentID == scope.AgentID {
		return true
	}
	return scope.TeamID != nil && lead.TeamID != nil && *lead.TeamID == *scope.TeamID
}

func matchesList(lead Lead, params ListParams) bool {
	if !inScope(lead, params.Scope) {
		return false
	}
	if params.Status != nil && lead.Status != *params.Status {
		return false
	}
	if params.Urgency != nil && lead.Urgency != *params.Urgency {
		return false
	}
	if params.Source != nil && lead.Source != *params.Source {
		return false
	}
	if params.AssignedAgentID != nil && (lead.AssignedAgentID == nil || *lead.AssignedAgentID != *params.AssignedAgentID) {
		return false
	}
	if params.MinBudget != nil && (lead.Budget == nil || *lead.Budget < *params.MinBudget) {
		return false
	}
	if params.MaxBudget != nil && (lead.Budget == nil || *lead.Budget > *params.MaxBudget) {
		return false
	}
	if params.MinScore != nil && lead.Score < *params.MinScore {
		return false
	}
	if params.MaxScore != nil && lead.Score > *params.MaxScore {
		return false
	}
	if params.CreatedFrom != nil && lead.CreatedAt.Before(*params.CreatedFrom) {
		return false
	}
	if params.CreatedTo != nil && !lead.CreatedAt.Before(*params.CreatedTo) {
		return false
	}
	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		location := ""
		if lead.LocationPreference != nil {
			location = *lead.LocationPreference
		}
		haystack := strings.ToLower(lead.Name + " " + lead.Email + " " + lead.Phone + " " + location)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func startOfISOWeek(now time.Time) time.Time {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(weekday - 1))
}
