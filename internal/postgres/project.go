package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/repository"
)

const projectColumns = `
	p.id, p.organization_id, p.owner_id, p.name, p.description, p.status,
	p.start_date, p.end_date, p.progress, p.total_tasks, p.completed_tasks,
	p.is_archived, p.created_at, p.updated_at`

// ProjectRepo implements project.Store over Postgres.
type ProjectRepo struct {
	db *DB
}

func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) CreateWithOwner(ctx context.Context, proj *project.Project, owner *project.Member) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
insert into projects (
    id, organization_id, owner_id, name, description, status,
    start_date, end_date, progress, total_tasks, completed_tasks,
    is_archived, created_at, updated_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`
	_, err = tx.Exec(ctx, q,
		proj.ID, proj.OrganizationID, proj.OwnerID, proj.Name, proj.Description, string(proj.Status),
		proj.StartDate, proj.EndDate, proj.Progress, proj.TotalTasks, proj.CompletedTasks,
		proj.IsArchived, proj.CreatedAt, proj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert project: %w", err)
	}

	if err := insertMember(ctx, tx, owner); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*project.Project, error) {
	q := `select ` + projectColumns + ` from projects p where p.id = $1`

	proj, err := scanProject(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return proj, nil
}

func (r *ProjectRepo) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	q := `select ` + projectColumns + ` from projects p where p.organization_id = $1`
	args := []any{opts.OrganizationID}

	if !opts.IncludeArchived {
		q += ` and not p.is_archived`
	}
	if opts.MemberID != "" {
		args = append(args, opts.MemberID)
		q += fmt.Sprintf(` and (p.owner_id = $%[1]d or exists (
    select 1 from project_members m where m.project_id = p.id and m.user_id = $%[1]d
))`, len(args))
	}
	q += ` order by p.created_at desc, p.id`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]project.Project, 0, 16)
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *proj)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) ListIDs(ctx context.Context, includeArchived bool) ([]string, error) {
	q := `select id from projects`
	if !includeArchived {
		q += ` where not is_archived`
	}
	q += ` order by created_at`

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *ProjectRepo) Update(ctx context.Context, id string, patch project.Patch) error {
	args := []any{patch.UpdatedAt}
	sets := []string{"updated_at = $1"}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	args = append(args, id)

	q := fmt.Sprintf(`update projects set %s where id = $%d and not is_archived`, strings.Join(sets, ", "), len(args))
	ct, err := r.db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return r.guard(ctx, id, ct)
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id string, from, to project.Status, at time.Time) error {
	const q = `
update projects
set status = $3, is_archived = $4, updated_at = $5
where id = $1 and status = $2;
`
	ct, err := r.db.Pool.Exec(ctx, q, id, string(from), string(to), to == project.StatusArchived, at)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return r.guard(ctx, id, ct)
}

func (r *ProjectRepo) UpdateProgress(ctx context.Context, id string, total, completed, progress int, at time.Time) error {
	const q = `
update projects
set total_tasks = $2, completed_tasks = $3, progress = $4, updated_at = $5
where id = $1 and not is_archived;
`
	ct, err := r.db.Pool.Exec(ctx, q, id, total, completed, progress, at)
	if err != nil {
		return fmt.Errorf("update project progress: %w", err)
	}
	return r.guard(ctx, id, ct)
}

func (r *ProjectRepo) guard(ctx context.Context, id string, ct pgconn.CommandTag) error {
	if ct.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, `select exists(select 1 from projects where id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var p project.Project
	var status string
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.OwnerID, &p.Name, &p.Description, &status,
		&p.StartDate, &p.EndDate, &p.Progress, &p.TotalTasks, &p.CompletedTasks,
		&p.IsArchived, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = project.Status(status)
	return &p, nil
}
