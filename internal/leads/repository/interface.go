package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID, scope Scope) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management. Update is a
// conditional write keyed on Lead.Version and returns ErrVersionConflict
// when a concurrent writer wins the race.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, lead Lead) (Lead, error)
}

// ActivityLogger records the append-only audit trail on leads.
type ActivityLogger interface {
	AddActivity(ctx context.Context, leadID uuid.UUID, performedBy uuid.UUID, activityType string, description string, metadata map[string]interface{}) error
	ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error)
}

// StatsReader provides access to dashboard aggregates.
type StatsReader interface {
	GetStats(ctx context.Context, scope Scope) (Stats, error)
}

// StaleScoreReader feeds the periodic score refresh job.
type StaleScoreReader interface {
	ListStaleScores(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadsRepository is the complete persistence contract for the leads module.
// Composed of smaller, focused interfaces for better testability.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	ActivityLogger
	StatsReader
	StaleScoreReader
}

// Ensure both implementations satisfy the contract.
var (
	_ LeadsRepository = (*Repository)(nil)
	_ LeadsRepository = (*MemoryRepository)(nil)
)
