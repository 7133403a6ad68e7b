package postgres

import (
	"context"
	"fmt"

	"github.com/rpggio/waypoint/internal/domain/project"
)

// TaskRepo reads task aggregates for project.TaskReader.
type TaskRepo struct {
	db *DB
}

func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) TaskStats(ctx context.Context, projectID string) (project.TaskStats, error) {
	const q = `
select
    count(*),
    count(*) filter (where status = 'DONE'),
    count(*) filter (where is_mandatory and status <> 'DONE')
from tasks
where project_id = $1;
`
	var stats project.TaskStats
	if err := r.db.Pool.QueryRow(ctx, q, projectID).Scan(&stats.Total, &stats.Done, &stats.MandatoryIncomplete); err != nil {
		return project.TaskStats{}, fmt.Errorf("count tasks: %w", err)
	}
	return stats, nil
}
