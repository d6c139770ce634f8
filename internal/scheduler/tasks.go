package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskScoreRefresh re-scores leads whose communication factor has decayed
// since the last calculation.
const TaskScoreRefresh = "leads.score.refresh"

type ScoreRefreshPayload struct {
	// BatchSize caps how many stale leads a single run touches.
	BatchSize int `json:"batchSize"`
}

func NewScoreRefreshTask(payload ScoreRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreRefresh, data), nil
}

func ParseScoreRefreshPayload(task *asynq.Task) (ScoreRefreshPayload, error) {
	var payload ScoreRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreRefreshPayload{}, err
	}
	return payload, nil
}
