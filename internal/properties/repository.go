package properties

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the properties projection table maintained by the listing
// service. Only active listings are visible to the scorer.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a snapshot repository over the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveProperties returns active listings, optionally scoped to one agent.
func (r *Repository) ActiveProperties(ctx context.Context, agentID *uuid.UUID) ([]SnapshotEntry, error) {
	query := `
		SELECT id, price, location, property_type, status
		FROM properties
		WHERE status = 'active'
	`
	args := []interface{}{}
	if agentID != nil {
		query += " AND agent_id = $1"
		args = append(args, *agentID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]SnapshotEntry, 0)
	for rows.Next() {
		var entry SnapshotEntry
		if err := rows.Scan(&entry.ID, &entry.Price, &entry.Location, &entry.PropertyType, &entry.Status); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

var _ SnapshotProvider = (*Repository)(nil)
