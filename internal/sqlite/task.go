package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/waypoint/internal/domain/project"
)

// TaskDone is the task status counted as complete.
const TaskDone = "DONE"

// TaskRepository reads task aggregates for project.TaskReader
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskStats counts a project's tasks
func (r *TaskRepository) TaskStats(ctx context.Context, projectID string) (project.TaskStats, error) {
	var stats project.TaskStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_mandatory = 1 AND status <> ? THEN 1 ELSE 0 END), 0)
		FROM tasks
		WHERE project_id = ?
	`, TaskDone, TaskDone, projectID).Scan(&stats.Total, &stats.Done, &stats.MandatoryIncomplete)
	if err != nil {
		return project.TaskStats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return stats, nil
}
