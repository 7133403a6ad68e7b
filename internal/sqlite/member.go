package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/repository"
)

// MemberRepository implements project.MemberStore for SQLite
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertMember(ctx context.Context, db execer, member *project.Member) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		member.ProjectID,
		member.UserID,
		member.Role,
		member.AddedBy,
		member.IsActive,
		member.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// AddMember inserts a membership row
func (r *MemberRepository) AddMember(ctx context.Context, member *project.Member) error {
	return insertMember(ctx, r.db, member)
}

// RemoveMember deletes a membership row
func (r *MemberRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetMemberRole returns the role of an active member, or RoleNone
func (r *MemberRepository) GetMemberRole(ctx context.Context, projectID, userID string) (project.Role, error) {
	var role project.Role
	err := r.db.QueryRowContext(ctx, `
		SELECT role FROM project_members
		WHERE project_id = ? AND user_id = ? AND is_active = 1
	`, projectID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return project.RoleNone, nil
	}
	if err != nil {
		return project.RoleNone, fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

// MemberExists reports whether any membership row exists, active or not
func (r *MemberRepository) MemberExists(ctx context.Context, projectID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// ListMembers returns all memberships of a project, owner first
func (r *MemberRepository) ListMembers(ctx context.Context, projectID string) ([]project.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, user_id, role, added_by, is_active, created_at
		FROM project_members
		WHERE project_id = ?
		ORDER BY CASE role WHEN 'OWNER' THEN 0 ELSE 1 END, created_at, user_id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []project.Member
	for rows.Next() {
		var m project.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AddedBy, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}
