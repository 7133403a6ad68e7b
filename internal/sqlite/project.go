package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/repository"
)

const projectColumns = `
	p.id, p.organization_id, p.owner_id, p.name, p.description, p.status,
	p.start_date, p.end_date, p.progress, p.total_tasks, p.completed_tasks,
	p.is_archived, p.created_at, p.updated_at`

// ProjectRepository implements project.Store for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateWithOwner inserts a project and its owner membership in one transaction
func (r *ProjectRepository) CreateWithOwner(ctx context.Context, proj *project.Project, owner *project.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (
			id, organization_id, owner_id, name, description, status,
			start_date, end_date, progress, total_tasks, completed_tasks,
			is_archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		proj.ID,
		proj.OrganizationID,
		proj.OwnerID,
		proj.Name,
		proj.Description,
		proj.Status,
		nullTime(proj.StartDate),
		nullTime(proj.EndDate),
		proj.Progress,
		proj.TotalTasks,
		proj.CompletedTasks,
		proj.IsArchived,
		proj.CreatedAt.UTC(),
		proj.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := insertMember(ctx, tx, owner); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns projects of an organization, newest first
func (r *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.organization_id = ?`
	args := []interface{}{opts.OrganizationID}

	if !opts.IncludeArchived {
		query += " AND p.is_archived = 0"
	}
	if opts.MemberID != "" {
		query += ` AND (p.owner_id = ? OR EXISTS (
			SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = ?
		))`
		args = append(args, opts.MemberID, opts.MemberID)
	}
	query += " ORDER BY p.created_at DESC, p.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

// ListIDs returns the IDs of all projects
func (r *ProjectRepository) ListIDs(ctx context.Context, includeArchived bool) ([]string, error) {
	query := `SELECT id FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return ids, nil
}

// Update applies a patch to a non-archived project
func (r *ProjectRepository) Update(ctx context.Context, id string, patch project.Patch) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{patch.UpdatedAt.UTC()}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, patch.StartDate.UTC())
	}
	if patch.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, patch.EndDate.UTC())
	}

	query := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND is_archived = 0`
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return r.guardResult(ctx, id, result)
}

// UpdateStatus moves a project from one status to another if it still holds from
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, from, to project.Status, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET status = ?, is_archived = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, to, to == project.StatusArchived, at.UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return r.guardResult(ctx, id, result)
}

// UpdateProgress writes derived task counters to a non-archived project
func (r *ProjectRepository) UpdateProgress(ctx context.Context, id string, total, completed, progress int, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET total_tasks = ?, completed_tasks = ?, progress = ?, updated_at = ?
		WHERE id = ? AND is_archived = 0
	`, total, completed, progress, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update project progress: %w", err)
	}
	return r.guardResult(ctx, id, result)
}

// guardResult distinguishes a missing row from a failed write guard.
func (r *ProjectRepository) guardResult(ctx context.Context, id string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var proj project.Project
	var startDate, endDate sql.NullTime
	err := row.Scan(
		&proj.ID,
		&proj.OrganizationID,
		&proj.OwnerID,
		&proj.Name,
		&proj.Description,
		&proj.Status,
		&startDate,
		&endDate,
		&proj.Progress,
		&proj.TotalTasks,
		&proj.CompletedTasks,
		&proj.IsArchived,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		proj.StartDate = &startDate.Time
	}
	if endDate.Valid {
		proj.EndDate = &endDate.Time
	}
	return &proj, nil
}

// nullTime stores t in UTC. The driver cannot scan back timestamps written
// with an unnamed zone offset.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
