// Package properties exposes a read-only snapshot of active property listings.
// Property management itself (CRUD, publishing, media) lives in a separate
// service; this package only projects what the lead scorer needs for matching.
package properties

import (
	"context"

	"github.com/google/uuid"
)

// SnapshotEntry is the minimal projection of a listing used for lead matching.
type SnapshotEntry struct {
	ID           uuid.UUID `json:"id"`
	Price        float64   `json:"price"`
	Location     string    `json:"location"`
	PropertyType string    `json:"propertyType"`
	Status       string    `json:"status"`
}

// SnapshotProvider returns the current set of active, published listings.
// A nil agentID means all active listings; otherwise the snapshot is scoped
// to the agent's inventory.
type SnapshotProvider interface {
	ActiveProperties(ctx context.Context, agentID *uuid.UUID) ([]SnapshotEntry, error)
}

// StaticProvider serves a fixed snapshot. Used in tests and as a stand-in
// when no property source is configured.
type StaticProvider struct {
	Entries []SnapshotEntry
}

// ActiveProperties returns the configured entries.
func (p *StaticProvider) ActiveProperties(_ context.Context, _ *uuid.UUID) ([]SnapshotEntry, error) {
	return p.Entries, nil
}

var _ SnapshotProvider = (*StaticProvider)(nil)
