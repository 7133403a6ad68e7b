package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/waypoint/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_Resolve(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddKey(ctx, "secret", "alice", "laptop"))
	require.ErrorIs(t, repo.AddKey(ctx, "secret", "bob", ""), repository.ErrDuplicate)

	userID, err := repo.ResolveActor(ctx, "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", userID)

	_, err = repo.ResolveActor(ctx, "wrong")
	require.ErrorIs(t, err, repository.ErrNotFound)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT key_hash FROM api_keys WHERE user_id = ?`, "alice").Scan(&stored))
	require.Equal(t, HashToken("secret"), stored)
	require.NotEqual(t, "secret", stored)
}
