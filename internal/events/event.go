// Package events defines the domain events exchanged between modules over the
// platform event bus.
package events

import (
	"realestate_crm_backend/platform/events"
	"realestate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export the platform bus types so modules only import internal/events.
type (
	Event       = events.Event
	BaseEvent   = events.BaseEvent
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	Bus         = events.Bus
)

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent { return events.NewBaseEvent() }

// NewInMemoryBus creates the default in-process bus.
func NewInMemoryBus(log *logger.Logger) *events.InMemoryBus { return events.NewInMemoryBus(log) }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published after a lead is persisted for the first time.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	AgentID uuid.UUID `json:"agentId"`
	Source  string    `json:"source"`
	Score   int       `json:"score"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadUpdated is published after a lead update is persisted.
type LeadUpdated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	AgentID  uuid.UUID `json:"agentId"`
	Rescored bool      `json:"rescored"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// LeadStatusChanged is published when a lead moves to a new lifecycle status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	AgentID   uuid.UUID `json:"agentId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadScoreRecalculated is published whenever the scoring engine recomputes a
// persisted lead score, whether from an update or the staleness refresh job.
type LeadScoreRecalculated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	AgentID  uuid.UUID `json:"agentId"`
	OldScore int       `json:"oldScore"`
	NewScore int       `json:"newScore"`
	Quality  string    `json:"quality"`
}

func (e LeadScoreRecalculated) EventName() string { return "leads.lead.score_recalculated" }
