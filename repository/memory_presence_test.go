package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPresence_CountsConnections(t *testing.T) {
	repo := NewMemoryPresenceRepo()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "kuzey", "u2"))
	require.NoError(t, repo.Add(ctx, "kuzey", "u1"))
	require.NoError(t, repo.Add(ctx, "kuzey", "u1"))
	require.NoError(t, repo.Add(ctx, "guney", "u3"))

	online, err := repo.Online(ctx, "kuzey")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, online)

	// İki sekmeden biri kapanınca kullanıcı hâlâ çevrimiçi.
	require.NoError(t, repo.Remove(ctx, "kuzey", "u1"))
	online, _ = repo.Online(ctx, "kuzey")
	assert.Equal(t, []string{"u1", "u2"}, online)

	require.NoError(t, repo.Remove(ctx, "kuzey", "u1"))
	require.NoError(t, repo.Remove(ctx, "kuzey", "u2"))
	online, _ = repo.Online(ctx, "kuzey")
	assert.Empty(t, online)

	// Hiç eklenmemiş kullanıcıyı çıkarmak hata değildir.
	assert.NoError(t, repo.Remove(ctx, "yok", "u9"))
}
