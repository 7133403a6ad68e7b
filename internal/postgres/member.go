package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/repository"
)

// MemberRepo implements project.MemberStore over Postgres.
type MemberRepo struct {
	db *DB
}

func NewMemberRepo(db *DB) *MemberRepo {
	return &MemberRepo{db: db}
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertMember(ctx context.Context, db execer, m *project.Member) error {
	const q = `
insert into project_members (project_id, user_id, role, added_by, is_active, created_at)
values ($1, $2, $3, $4, $5, $6);
`
	_, err := db.Exec(ctx, q, m.ProjectID, m.UserID, string(m.Role), m.AddedBy, m.IsActive, m.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return repository.ErrDuplicate
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	default:
		return fmt.Errorf("insert member: %w", err)
	}
}

func (r *MemberRepo) AddMember(ctx context.Context, m *project.Member) error {
	return insertMember(ctx, r.db.Pool, m)
}

func (r *MemberRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	ct, err := r.db.Pool.Exec(ctx, `delete from project_members where project_id = $1 and user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MemberRepo) GetMemberRole(ctx context.Context, projectID, userID string) (project.Role, error) {
	const q = `
select role from project_members
where project_id = $1 and user_id = $2 and is_active;
`
	var role string
	err := r.db.Pool.QueryRow(ctx, q, projectID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return project.RoleNone, nil
	}
	if err != nil {
		return project.RoleNone, fmt.Errorf("get member role: %w", err)
	}
	return project.Role(role), nil
}

func (r *MemberRepo) MemberExists(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`select exists(select 1 from project_members where project_id = $1 and user_id = $2)`,
		projectID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (r *MemberRepo) ListMembers(ctx context.Context, projectID string) ([]project.Member, error) {
	const q = `
select project_id, user_id, role, added_by, is_active, created_at
from project_members
where project_id = $1
order by case role when 'OWNER' then 0 else 1 end, created_at, user_id;
`
	rows, err := r.db.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := make([]project.Member, 0, 8)
	for rows.Next() {
		var m project.Member
		var role string
		if err := rows.Scan(&m.ProjectID, &m.UserID, &role, &m.AddedBy, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = project.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
