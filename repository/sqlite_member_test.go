package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrispine/server/models"
)

func TestSQLiteMember_UpsertKeepsJoinedAtAndName(t *testing.T) {
	repo := NewSQLiteMemberRepo(newTestDB(t).Conn)
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &models.VillageMember{
		Village: "kuzey", UserID: "u1", Name: "Ali", JoinedAt: first, LastSeenAt: first,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.VillageMember{
		Village: "kuzey", UserID: "u2", Name: "Zeynep", JoinedAt: first.Add(time.Hour), LastSeenAt: first.Add(time.Hour),
	}))

	later := first.Add(24 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.VillageMember{
		Village: "kuzey", UserID: "u1", JoinedAt: later, LastSeenAt: later,
	}))

	members, err := repo.ListByVillage(ctx, "kuzey")
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "u1", members[0].UserID)
	assert.Equal(t, "Ali", members[0].Name)
	assert.True(t, first.Equal(members[0].JoinedAt))
	assert.True(t, later.Equal(members[0].LastSeenAt))
	assert.Equal(t, "u2", members[1].UserID)

	empty, err := repo.ListByVillage(ctx, "guney")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
