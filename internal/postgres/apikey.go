package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/waypoint/internal/repository"
)

// APIKeyRepo maps bearer tokens to user IDs.
type APIKeyRepo struct {
	db *DB
}

func NewAPIKeyRepo(db *DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

func (r *APIKeyRepo) AddKey(ctx context.Context, token, userID, description string) error {
	_, err := r.db.Pool.Exec(ctx,
		`insert into api_keys (key_hash, user_id, description) values ($1, $2, $3)`,
		hashToken(token), userID, description)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepo) ResolveActor(ctx context.Context, token string) (string, error) {
	const q = `
update api_keys set last_used = now()
where key_hash = $1
returning user_id;
`
	var userID string
	err := r.db.Pool.QueryRow(ctx, q, hashToken(token)).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve api key: %w", err)
	}
	return userID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
