package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"realestate_crm_backend/internal/leads/scoring"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrVersionConflict means a concurrent writer bumped the lead version
	// between our read and write. Callers re-read and retry.
	ErrVersionConflict = errors.New("lead version conflict")
)

// Scope restricts queries to the requesting agent's leads. A lead is visible
// to its owning agent and, when a team is set, to teammates.
type Scope struct {
	AgentID uuid.UUID
	TeamID  *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                     uuid.UUID
	AgentID                uuid.UUID
	TeamID                 *uuid.UUID
	AssignedAgentID        *uuid.UUID
	Name                   string
	Email                  string
	Phone                  string
	Budget                 *float64
	PropertyTypePreference *string
	LocationPreference     *string
	Timeline               *string
	Urgency                string
	Source                 string
	Status                 string
	Score                  int
	Scoring                scoring.LeadScoring
	ConversionValue        *float64
	LastContactDate        *time.Time
	Version                int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type CreateLeadParams struct {
	AgentID                uuid.UUID
	TeamID                 *uuid.UUID
	AssignedAgentID        *uuid.UUID
	Name                   string
	Email                  string
	Phone                  string
	Budget                 *float64
	PropertyTypePreference *string
	LocationPreference     *string
	Timeline               *string
	Urgency                string
	Source                 string
	Status                 string
	Score                  int
	Scoring                scoring.LeadScoring
	LastContactDate        *time.Time
}

const leadColumns = `id, agent_id, team_id, assigned_agent_id, name, email, phone,
	budget, property_type_preference, location_preference, timeline, urgency, source,
	status, score, scoring, conversion_value, last_contact_date, version, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	scoringJSON, err := json.Marshal(params.Scoring)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal scoring: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			agent_id, team_id, assigned_agent_id, name, email, phone,
			budget, property_type_preference, location_preference, timeline, urgency, source,
			status, score, scoring, last_contact_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+leadColumns,
		params.AgentID, params.TeamID, params.AssignedAgentID, params.Name, params.Email, params.Phone,
		params.Budget, params.PropertyTypePreference, params.LocationPreference, params.Timeline, params.Urgency, params.Source,
		params.Status, params.Score, scoringJSON, params.LastContactDate,
	)

	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, scope Scope) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND (agent_id = $2 OR ($3::uuid IS NOT NULL AND team_id = $3))
	`, id, scope.AgentID, scope.TeamID)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Update persists a fully merged lead keyed on its read version. It returns
// ErrVersionConflict when a concurrent writer got there first, so the caller
// can re-read, re-merge, re-score and retry. This keeps the persisted
// score_breakdown consistent with the persisted lead fields.
func (r *Repository) Update(ctx context.Context, lead Lead) (Lead, error) {
	scoringJSON, err := json.Marshal(lead.Scoring)
	if err != nil {
		return Lead{}, fmt.Errorf("marshal scoring: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			assigned_agent_id = $3,
			name = $4,
			email = $5,
			phone = $6,
			budget = $7,
			property_type_preference = $8,
			location_preference = $9,
			timeline = $10,
			urgency = $11,
			status = $12,
			score = $13,
			scoring = $14,
			conversion_value = $15,
			last_contact_date = $16,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+leadColumns,
		lead.ID, lead.Version,
		lead.AssignedAgentID, lead.Name, lead.Email, lead.Phone,
		lead.Budget, lead.PropertyTypePreference, lead.LocationPreference, lead.Timeline, lead.Urgency,
		lead.Status, lead.Score, scoringJSON, lead.ConversionValue, lead.LastContactDate,
	)

	updated, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a deleted lead from a version race.
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, lead.ID).Scan(&exists); checkErr != nil {
			return Lead{}, checkErr
		}
		if !exists {
			return Lead{}, ErrNotFound
		}
		return Lead{}, ErrVersionConflict
	}
	return updated, err
}

type ListParams struct {
	Scope           Scope
	Status          *string
	Urgency         *string
	Source          *string
	AssignedAgentID *uuid.UUID
	MinBudget       *float64
	MaxBudget       *float64
	MinScore        *int
	MaxScore        *int
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Search          string
	Offset          int
	Limit           int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads l WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads l
		WHERE %s
		ORDER BY l.score DESC, l.created_at DESC
		LIMIT $%d OFFSET $%d
	`, prefixColumns("l"), whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	// Agent scope is always the first filter.
	whereClauses := []string{"(l.agent_id = $1 OR ($2::uuid IS NOT NULL AND l.team_id = $2))"}
	args := []interface{}{params.Scope.AgentID, params.Scope.TeamID}
	argIdx := 3

	addClause := func(clause string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addClause("l.status = $%d", *params.Status)
	}
	if params.Urgency != nil {
		addClause("l.urgency = $%d", *params.Urgency)
	}
	if params.Source != nil {
		addClause("l.source = $%d", *params.Source)
	}
	if params.AssignedAgentID != nil {
		addClause("l.assigned_agent_id = $%d", *params.AssignedAgentID)
	}
	if params.MinBudget != nil {
		addClause("l.budget >= $%d", *params.MinBudget)
	}
	if params.MaxBudget != nil {
		addClause("l.budget <= $%d", *params.MaxBudget)
	}
	if params.MinScore != nil {
		addClause("l.score >= $%d", *params.MinScore)
	}
	if params.MaxScore != nil {
		addClause("l.score <= $%d", *params.MaxScore)
	}
	if params.CreatedFrom != nil {
		addClause("l.created_at >= $%d", *params.CreatedFrom)
	}
	if params.CreatedTo != nil {
		addClause("l.created_at < $%d", *params.CreatedTo)
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.name ILIKE $%d OR l.email ILIKE $%d OR l.phone ILIKE $%d OR l.location_preference ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

// ListStaleScores returns leads whose scoring is older than the cutoff, for
// the periodic refresh job. Terminal leads are skipped; their scores no
// longer drive any ranking.
func (r *Repository) ListStaleScores(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status NOT IN ('converted', 'lost')
			AND (scoring->>'last_calculated')::timestamptz < $1
		ORDER BY (scoring->>'last_calculated')::timestamptz ASC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

func prefixColumns(alias string) string {
	parts := strings.Split(leadColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var scoringJSON []byte
	err := row.Scan(
		&lead.ID, &lead.AgentID, &lead.TeamID, &lead.AssignedAgentID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.Budget, &lead.PropertyTypePreference, &lead.LocationPreference, &lead.Timeline, &lead.Urgency, &lead.Source,
		&lead.Status, &lead.Score, &scoringJSON, &lead.ConversionValue, &lead.LastContactDate,
		&lead.Version, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	if len(scoringJSON) > 0 {
		if err := json.Unmarshal(scoringJSON, &lead.Scoring); err != nil {
			return Lead{}, fmt.Errorf("unmarshal scoring: %w", err)
		}
	}

	return lead, nil
}
