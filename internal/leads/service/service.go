// Package service orchestrates lead create/update/search flows: it is the
// only place where the scoring engine, the repository, the property snapshot
// and the event bus meet.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"realestate_crm_backend/internal/events"
	"realestate_crm_backend/internal/leads/repository"
	"realestate_crm_backend/internal/leads/scoring"
	"realestate_crm_backend/internal/leads/transport"
	"realestate_crm_backend/internal/properties"
	"realestate_crm_backend/platform/apperr"
	"realestate_crm_backend/platform/logger"
	"realestate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	// maxUpdateAttempts bounds the optimistic-concurrency retry loop.
	maxUpdateAttempts = 3

	defaultPerPage = 20
	maxPerPage     = 100
)

type Service struct {
	repo      repository.LeadsRepository
	engine    *scoring.Engine
	snapshots properties.SnapshotProvider
	bus       events.Bus
	log       *logger.Logger
}

func New(repo repository.LeadsRepository, engine *scoring.Engine, snapshots properties.SnapshotProvider, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		snapshots: snapshots,
		bus:       bus,
		log:       log,
	}
}

// Create validates, scores and persists a new lead. Scoring failures never
// block the write: the engine degrades internally and the snapshot fetch
// falls back to an empty inventory.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, agentID uuid.UUID, teamID *uuid.UUID) (transport.LeadResponse, error) {
	req.Phone = phone.NormalizeE164(req.Phone)

	now := time.Now().UTC()
	input := scoring.LeadInput{
		Budget:                 req.Budget,
		Urgency:                string(req.Urgency),
		Timeline:               req.Timeline,
		LocationPreference:     req.LocationPreference,
		PropertyTypePreference: req.PropertyTypePreference,
		CreatedAt:              now,
	}
	leadScoring := s.engine.Calculate(input, s.fetchSnapshot(ctx))

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		AgentID:                agentID,
		TeamID:                 teamID,
		AssignedAgentID:        req.AssignedAgentID,
		Name:                   req.Name,
		Email:                  req.Email,
		Phone:                  req.Phone,
		Budget:                 req.Budget,
		PropertyTypePreference: req.PropertyTypePreference,
		LocationPreference:     req.LocationPreference,
		Timeline:               req.Timeline,
		Urgency:                string(req.Urgency),
		Source:                 string(req.Source),
		Status:                 string(transport.LeadStatusNew),
		Score:                  int(math.Round(leadScoring.TotalScore)),
		Scoring:                leadScoring,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		AgentID:   agentID,
		Source:    lead.Source,
		Score:     lead.Score,
	})
	s.appendActivity(ctx, lead.ID, agentID, repository.ActivityCreated,
		fmt.Sprintf("Lead created from %s with score %d (%s)", lead.Source, lead.Score, lead.Scoring.Quality), nil)

	return toLeadResponse(lead), nil
}

// Update merges the patch into the current lead, recomputing the score only
// when a scoring-relevant field changed. The read-merge-write cycle is keyed
// on the lead version and retried on conflict so the persisted breakdown is
// always consistent with the persisted fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest, agentID uuid.UUID, teamID *uuid.UUID) (transport.LeadResponse, error) {
	scope := repository.Scope{AgentID: agentID, TeamID: teamID}

	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		lead, err := s.repo.GetByID(ctx, id, scope)
		if err != nil {
			return transport.LeadResponse{}, mapRepoError(err)
		}

		oldStatus := lead.Status
		oldScore := lead.Score
		rescore := applyPatch(&lead, req)

		if rescore {
			leadScoring := s.engine.Calculate(scoringInput(lead), s.fetchSnapshot(ctx))
			lead.Scoring = leadScoring
			lead.Score = int(math.Round(leadScoring.TotalScore))
		}

		updated, err := s.repo.Update(ctx, lead)
		if errors.Is(err, repository.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return transport.LeadResponse{}, mapRepoError(err)
		}

		s.publish(ctx, events.LeadUpdated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			AgentID:   agentID,
			Rescored:  rescore,
		})
		s.appendActivity(ctx, updated.ID, agentID, repository.ActivityUpdated, "Lead details updated", nil)

		if updated.Status != oldStatus {
			s.publish(ctx, events.LeadStatusChanged{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    updated.ID,
				AgentID:   agentID,
				OldStatus: oldStatus,
				NewStatus: updated.Status,
			})
			activityType := repository.ActivityStatusChanged
			if updated.Status == string(transport.LeadStatusConverted) {
				activityType = repository.ActivityConverted
			}
			s.appendActivity(ctx, updated.ID, agentID, activityType,
				fmt.Sprintf("Status changed from %s to %s", oldStatus, updated.Status), nil)
		}

		if rescore {
			s.publishRescore(ctx, updated, agentID, oldScore)
		}

		return toLeadResponse(updated), nil
	}

	return transport.LeadResponse{}, apperr.Wrap(apperr.KindConflict, "lead was modified concurrently, retry the update", lastErr)
}

// GetByID returns a single lead within the agent's scope.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, agentID uuid.UUID, teamID *uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id, repository.Scope{AgentID: agentID, TeamID: teamID})
	if err != nil {
		return transport.LeadResponse{}, mapRepoError(err)
	}
	return toLeadResponse(lead), nil
}

// Search runs a filtered, paginated lead query.
func (s *Service) Search(ctx context.Context, req transport.SearchLeadsRequest, agentID uuid.UUID, teamID *uuid.UUID) (transport.SearchResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	params := repository.ListParams{
		Scope:           repository.Scope{AgentID: agentID, TeamID: teamID},
		Status:          enumPtr(req.Status),
		Urgency:         enumPtr(req.Urgency),
		Source:          enumPtr(req.Source),
		AssignedAgentID: req.AssignedAgentID,
		MinBudget:       req.MinBudget,
		MaxBudget:       req.MaxBudget,
		MinScore:        req.MinScore,
		MaxScore:        req.MaxScore,
		CreatedFrom:     req.CreatedFrom,
		CreatedTo:       req.CreatedTo,
		Search:          req.Search,
		Offset:          (page - 1) * perPage,
		Limit:           perPage,
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.SearchResult{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	return transport.SearchResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// Stats computes the dashboard aggregates for the agent scope.
func (s *Service) Stats(ctx context.Context, agentID uuid.UUID, teamID *uuid.UUID) (transport.StatsResponse, error) {
	stats, err := s.repo.GetStats(ctx, repository.Scope{AgentID: agentID, TeamID: teamID})
	if err != nil {
		return transport.StatsResponse{}, err
	}

	conversionRate := 0.0
	if stats.TotalLeads > 0 {
		conversionRate = round2(float64(stats.ConvertedCount) / float64(stats.TotalLeads) * 100)
	}

	return transport.StatsResponse{
		TotalLeads:          stats.TotalLeads,
		ByStatus:            stats.ByStatus,
		ConversionRate:      conversionRate,
		ConvertedValueTotal: stats.ConvertedValueTotal,
		ConvertedValueAvg:   round2(stats.ConvertedValueAvg),
		CreatedToday:        stats.CreatedToday,
		CreatedThisWeek:     stats.CreatedThisWeek,
		CreatedThisMonth:    stats.CreatedThisMonth,
	}, nil
}

// RecordContact stamps a contact touch on the lead and refreshes the
// communication factor.
func (s *Service) RecordContact(ctx context.Context, id uuid.UUID, req transport.RecordContactRequest, agentID uuid.UUID, teamID *uuid.UUID) (transport.LeadResponse, error) {
	now := time.Now().UTC()
	patch := transport.UpdateLeadRequest{LastContactDate: &now}
	response, err := s.Update(ctx, id, patch, agentID, teamID)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	description := "Contact recorded"
	if req.Note != "" {
		description = "Contact recorded: " + req.Note
	}
	s.appendActivity(ctx, id, agentID, repository.ActivityContactRecorded, description, nil)

	return response, nil
}

// Rescore forces a fresh scoring pass for a single lead.
func (s *Service) Rescore(ctx context.Context, id uuid.UUID, agentID uuid.UUID, teamID *uuid.UUID) (transport.LeadResponse, error) {
	scope := repository.Scope{AgentID: agentID, TeamID: teamID}

	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		lead, err := s.repo.GetByID(ctx, id, scope)
		if err != nil {
			return transport.LeadResponse{}, mapRepoError(err)
		}

		oldScore := lead.Score
		leadScoring := s.engine.Calculate(scoringInput(lead), s.fetchSnapshot(ctx))
		lead.Scoring = leadScoring
		lead.Score = int(math.Round(leadScoring.TotalScore))

		updated, err := s.repo.Update(ctx, lead)
		if errors.Is(err, repository.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return transport.LeadResponse{}, mapRepoError(err)
		}

		s.publishRescore(ctx, updated, agentID, oldScore)
		return toLeadResponse(updated), nil
	}

	return transport.LeadResponse{}, apperr.Wrap(apperr.KindConflict, "lead was modified concurrently, retry the rescore", lastErr)
}

// ListActivity returns the audit trail for a lead the agent can see.
func (s *Service) ListActivity(ctx context.Context, id uuid.UUID, agentID uuid.UUID, teamID *uuid.UUID, limit int) ([]transport.ActivityResponse, error) {
	// Scope check first; activity rows themselves are not scoped.
	if _, err := s.repo.GetByID(ctx, id, repository.Scope{AgentID: agentID, TeamID: teamID}); err != nil {
		return nil, mapRepoError(err)
	}

	items, err := s.repo.ListActivity(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.ActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toActivityResponse(item))
	}
	return responses, nil
}

// RefreshStaleScores re-scores leads whose scoring predates the cutoff. Used
// by the scheduler; version conflicts are skipped, the next run catches them.
func (s *Service) RefreshStaleScores(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStaleScores(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	snapshot := s.fetchSnapshot(ctx)
	refreshed := 0
	for _, lead := range stale {
		oldScore := lead.Score
		leadScoring := s.engine.Calculate(scoringInput(lead), snapshot)
		lead.Scoring = leadScoring
		lead.Score = int(math.Round(leadScoring.TotalScore))

		updated, err := s.repo.Update(ctx, lead)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return refreshed, err
		}

		s.publishRescore(ctx, updated, lead.AgentID, oldScore)
		refreshed++
	}

	return refreshed, nil
}

// =============================================================================
// Internals
// =============================================================================

// fetchSnapshot returns the active inventory, degrading to nil on failure so
// lead writes never block on the property source. With a nil snapshot every
// inventory-dependent factor scores its neutral default.
func (s *Service) fetchSnapshot(ctx context.Context) []properties.SnapshotEntry {
	snapshot, err := s.snapshots.ActiveProperties(ctx, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warn("property snapshot fetch failed, scoring without inventory", "error", err)
		}
		return nil
	}
	return snapshot
}

// applyPatch merges the update request into the lead and reports whether a
// scoring-relevant field changed. Contact-detail edits (name, email, phone)
// never trigger a rescore.
func applyPatch(lead *repository.Lead, req transport.UpdateLeadRequest) bool {
	rescore := false

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Budget != nil && !floatPtrEqual(lead.Budget, req.Budget) {
		lead.Budget = req.Budget
		rescore = true
	}
	if req.PropertyTypePreference != nil && !strPtrEqual(lead.PropertyTypePreference, req.PropertyTypePreference) {
		lead.PropertyTypePreference = req.PropertyTypePreference
		rescore = true
	}
	if req.LocationPreference != nil && !strPtrEqual(lead.LocationPreference, req.LocationPreference) {
		lead.LocationPreference = req.LocationPreference
		rescore = true
	}
	if req.Timeline != nil && !strPtrEqual(lead.Timeline, req.Timeline) {
		lead.Timeline = req.Timeline
		rescore = true
	}
	if req.Urgency != nil && lead.Urgency != string(*req.Urgency) {
		lead.Urgency = string(*req.Urgency)
		rescore = true
	}
	if req.Status != nil {
		lead.Status = string(*req.Status)
	}
	if req.AssignedAgentID != nil {
		lead.AssignedAgentID = req.AssignedAgentID
	}
	if req.ConversionValue != nil {
		lead.ConversionValue = req.ConversionValue
	}
	if req.LastContactDate != nil {
		lead.LastContactDate = req.LastContactDate
		rescore = true
	}

	return rescore
}

func scoringInput(lead repository.Lead) scoring.LeadInput {
	return scoring.LeadInput{
		Budget:                 lead.Budget,
		Urgency:                lead.Urgency,
		Timeline:               lead.Timeline,
		LocationPreference:     lead.LocationPreference,
		PropertyTypePreference: lead.PropertyTypePreference,
		LastContactDate:        lead.LastContactDate,
		CreatedAt:              lead.CreatedAt,
	}
}

func (s *Service) publishRescore(ctx context.Context, lead repository.Lead, agentID uuid.UUID, oldScore int) {
	s.publish(ctx, events.LeadScoreRecalculated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		AgentID:   agentID,
		OldScore:  oldScore,
		NewScore:  lead.Score,
		Quality:   lead.Scoring.Quality,
	})
	s.appendActivity(ctx, lead.ID, agentID, repository.ActivityScoreRecalculated,
		fmt.Sprintf("Score recalculated: %d -> %d (%s)", oldScore, lead.Score, lead.Scoring.Quality),
		map[string]interface{}{"oldScore": oldScore, "newScore": lead.Score})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

// appendActivity is fire-and-forget: a failed audit write is logged and
// swallowed, never rolled into the lead write's outcome.
func (s *Service) appendActivity(ctx context.Context, leadID uuid.UUID, performedBy uuid.UUID, activityType string, description string, metadata map[string]interface{}) {
	if err := s.repo.AddActivity(ctx, leadID, performedBy, activityType, description, metadata); err != nil && s.log != nil {
		s.log.ActivityWriteFailed(leadID.String(), activityType, err)
	}
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

func enumPtr[T ~string](value *T) *string {
	if value == nil {
		return nil
	}
	text := string(*value)
	return &text
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
