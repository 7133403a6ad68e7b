package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/waypoint/internal/domain/activity"
)

// ActivityRepo implements activity.Repository over Postgres.
type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Log(ctx context.Context, e *activity.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var changes any
	if len(e.Changes) > 0 {
		changes = e.Changes
	}

	const q = `
insert into activity_log (project_id, activity_type, actor_id, entity_type, entity_id, changes, description, created_at)
values ($1, $2, $3, $4, $5, $6, $7, $8)
returning id;
`
	err := r.db.Pool.QueryRow(ctx, q,
		e.ProjectID, string(e.Type), e.ActorID, e.EntityType, e.EntityID, changes, e.Description, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	var conds []string
	var args []any
	where := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.ProjectID != "" {
		where("project_id = $%d", opts.ProjectID)
	}
	if opts.ActorID != "" {
		where("actor_id = $%d", opts.ActorID)
	}
	if opts.Type != nil {
		where("activity_type = $%d", string(*opts.Type))
	}

	q := `
select id, project_id, activity_type, actor_id, entity_type, entity_id, changes, description, created_at
from activity_log`
	if len(conds) > 0 {
		q += ` where ` + strings.Join(conds, " and ")
	}
	q += ` order by created_at desc, id desc`
	if opts.Limit > 0 {
		args = append(args, opts.Limit, opts.Offset)
		q += fmt.Sprintf(` limit $%d offset $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]activity.Entry, 0, 32)
	for rows.Next() {
		var e activity.Entry
		var typ string
		if err := rows.Scan(&e.ID, &e.ProjectID, &typ, &e.ActorID, &e.EntityType, &e.EntityID, &e.Changes, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Type = activity.Type(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
