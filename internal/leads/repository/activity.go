package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity types recorded on the lead timeline.
const (
	ActivityCreated           = "created"
	ActivityUpdated           = "updated"
	ActivityStatusChanged     = "status_changed"
	ActivityContactRecorded   = "contact_recorded"
	ActivityScoreRecalculated = "score_recalculated"
	ActivityConverted         = "converted"
)

// Activity is an immutable audit record. lead_id is a lookup key only, not an
// ownership edge: activity rows outlive any in-memory lead graph.
type Activity struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	ActivityType string
	Description  string
	PerformedBy  uuid.UUID
	Metadata     map[string]interface{}
	CreatedAt    time.Time
}

// AddActivity appends an audit record for a lead. Append-only; there is no
// update or delete path.
func (r *Repository) AddActivity(ctx context.Context, leadID uuid.UUID, performedBy uuid.UUID, activityType string, description string, metadata map[string]interface{}) error {
	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, activity_type, description, performed_by, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, leadID, activityType, description, performedBy, metadataJSON)
	return err
}

// ListActivity returns a lead's audit trail, newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, activity_type, description, performed_by, metadata, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var item Activity
		var metadataJSON []byte
		if err := rows.Scan(&item.ID, &item.LeadID, &item.ActivityType, &item.Description, &item.PerformedBy, &metadataJSON, &item.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
			}
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
