package repository

import (
	"context"
)

// Stats aggregates dashboard KPI values for an agent scope.
type Stats struct {
	TotalLeads          int
	ByStatus            map[string]int
	ConvertedCount      int
	ConvertedValueTotal float64
	ConvertedValueAvg   float64
	CreatedToday        int
	CreatedThisWeek     int
	CreatedThisMonth    int
}

// GetStats computes dashboard aggregates in a single query. Reads are not
// linearizable with concurrent writes; dashboard staleness is acceptable.
func (r *Repository) GetStats(ctx context.Context, scope Scope) (Stats, error) {
	stats := Stats{ByStatus: make(map[string]int)}

	var newCount, contacted, qualified, converted, lost int
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'new') AS new_count,
			COUNT(*) FILTER (WHERE status = 'contacted') AS contacted,
			COUNT(*) FILTER (WHERE status = 'qualified') AS qualified,
			COUNT(*) FILTER (WHERE status = 'converted') AS converted,
			COUNT(*) FILTER (WHERE status = 'lost') AS lost,
			COALESCE(SUM(conversion_value) FILTER (WHERE status = 'converted'), 0) AS converted_value,
			COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW())) AS created_today,
			COUNT(*) FILTER (WHERE created_at >= date_trunc('week', NOW())) AS created_week,
			COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW())) AS created_month
		FROM leads
		WHERE agent_id = $1 OR ($2::uuid IS NOT NULL AND team_id = $2)
	`, scope.AgentID, scope.TeamID).Scan(
		&stats.TotalLeads,
		&newCount, &contacted, &qualified, &converted, &lost,
		&stats.ConvertedValueTotal,
		&stats.CreatedToday, &stats.CreatedThisWeek, &stats.CreatedThisMonth,
	)
	if err != nil {
		return Stats{}, err
	}

	stats.ByStatus["new"] = newCount
	stats.ByStatus["contacted"] = contacted
	stats.ByStatus["qualified"] = qualified
	stats.ByStatus["converted"] = converted
	stats.ByStatus["lost"] = lost
	stats.ConvertedCount = converted

	if converted > 0 {
		stats.ConvertedValueAvg = stats.ConvertedValueTotal / float64(converted)
	}

	return stats, nil
}
