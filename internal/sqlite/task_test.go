package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_TaskStats(t *testing.T) {
	db := NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	insertProject(t, db, "p1", "org1", "owner")

	stats, err := repo.TaskStats(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, project.TaskStats{}, stats)

	insertTask(t, db, "t1", "p1", TaskDone, true)
	insertTask(t, db, "t2", "p1", "IN_PROGRESS", true)
	insertTask(t, db, "t3", "p1", "TODO", false)
	insertTask(t, db, "t4", "p1", TaskDone, false)

	stats, err = repo.TaskStats(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, project.TaskStats{Total: 4, Done: 2, MandatoryIncomplete: 1}, stats)
}
