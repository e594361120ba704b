package repository

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/agrispine/server/database"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// newTestMongo, gerçek bir MongoDB container'ı başlatır. Docker yoksa test atlanır.
func newTestMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}

	probe, cancelProbe := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelProbe()
	if exec.CommandContext(probe, "docker", "info").Run() != nil {
		t.Skip("skipping mongo container test: docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	m, err := database.ConnectMongo(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "agrispine_test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return m.DB
}

// Container başlatmak pahalı olduğundan tüm durumlar tek container'da,
// her biri kendi köyünde çalışır.
func TestMongoMessage(t *testing.T) {
	repo := NewMongoMessageRepo(newTestMongo(t))
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("insert and get", func(t *testing.T) {
		m := insertMsg(t, repo, "insert", "u1", "merhaba", now)

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "merhaba", got.Text)
		assert.Equal(t, "u1-name", got.SenderName)
		assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, []string{}, got.StarredBy)
		assert.Equal(t, []models.Reaction{}, got.Reactions)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("list order, hide and read", func(t *testing.T) {
		second := insertMsg(t, repo, "list", "u1", "second", now.Add(time.Second))
		insertMsg(t, repo, "list", "u2", "first", now)
		insertMsg(t, repo, "list-other", "u1", "elsewhere", now)

		list, err := repo.ListVisible(ctx, "list", "u3")
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, texts(list))

		n, err := repo.DeleteForMe(ctx, []string{second.ID, second.ID, "missing"}, "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		list, err = repo.ListVisible(ctx, "list", "u3")
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, texts(list))

		list, err = repo.ListVisible(ctx, "list", "u1")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		n, err = repo.MarkReadBulk(ctx, "list", "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.MarkReadBulk(ctx, "list", "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("star toggle is an involution", func(t *testing.T) {
		m := insertMsg(t, repo, "star", "u1", "a", now)

		got, err := repo.ToggleStar(ctx, m.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, got.StarredBy)

		got, err = repo.ToggleStar(ctx, m.ID, "u3")
		require.NoError(t, err)
		assert.Equal(t, []string{"u2", "u3"}, got.StarredBy)

		got, err = repo.ToggleStar(ctx, m.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, []string{"u3"}, got.StarredBy)

		got, err = repo.ToggleStar(ctx, m.ID, "u3")
		require.NoError(t, err)
		assert.Empty(t, got.StarredBy)

		_, err = repo.ToggleStar(ctx, "missing", "u2")
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("reaction replaces previous one", func(t *testing.T) {
		m := insertMsg(t, repo, "react", "u1", "a", now)

		_, err := repo.SetReaction(ctx, m.ID, "u1", "❤️")
		require.NoError(t, err)
		_, err = repo.SetReaction(ctx, m.ID, "u2", "👍")
		require.NoError(t, err)

		got, err := repo.SetReaction(ctx, m.ID, "u1", "😂")
		require.NoError(t, err)
		assert.Equal(t, []models.Reaction{
			{UserID: "u2", Emoji: "👍"},
			{UserID: "u1", Emoji: "😂"},
		}, got.Reactions)

		got, err = repo.ClearReaction(ctx, m.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, []models.Reaction{{UserID: "u1", Emoji: "😂"}}, got.Reactions)

		got, err = repo.ClearReaction(ctx, m.ID, "u9")
		require.NoError(t, err)
		assert.Len(t, got.Reactions, 1)

		_, err = repo.SoftDeleteForEveryone(ctx, m.ID, "u1")
		require.NoError(t, err)

		_, err = repo.SetReaction(ctx, m.ID, "u2", "👍")
		assert.ErrorIs(t, err, pkg.ErrBadRequest)

		_, err = repo.SetReaction(ctx, "missing", "u2", "👍")
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("delete for everyone", func(t *testing.T) {
		m := insertMsg(t, repo, "tombstone", "u1", "gizli", now)
		_, err := repo.ToggleStar(ctx, m.ID, "u2")
		require.NoError(t, err)
		_, err = repo.SetReaction(ctx, m.ID, "u2", "👍")
		require.NoError(t, err)

		_, err = repo.SoftDeleteForEveryone(ctx, m.ID, "u2")
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)

		untouched, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "gizli", untouched.Text)
		assert.Len(t, untouched.Reactions, 1)

		deleted, err := repo.SoftDeleteForEveryone(ctx, m.ID, "u1")
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)
		assert.Equal(t, models.DeletedPlaceholder, deleted.Text)
		assert.Empty(t, deleted.Reactions)
		assert.Equal(t, []string{"u2"}, deleted.StarredBy)

		again, err := repo.SoftDeleteForEveryone(ctx, m.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, deleted, again)

		_, err = repo.SoftDeleteForEveryone(ctx, "missing", "u1")
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("bulk delete skips others", func(t *testing.T) {
		mine := insertMsg(t, repo, "bulk", "u1", "mine", now)
		theirs := insertMsg(t, repo, "bulk", "u2", "theirs", now.Add(time.Second))

		out, err := repo.SoftDeleteOwned(ctx, []string{mine.ID, theirs.ID, "missing"}, "u1")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, mine.ID, out[0].ID)
		assert.True(t, out[0].IsDeleted)

		other, err := repo.GetByID(ctx, theirs.ID)
		require.NoError(t, err)
		assert.False(t, other.IsDeleted)
	})

	t.Run("sweep keeps starred", func(t *testing.T) {
		keep := insertMsg(t, repo, "sweep", "u1", "keep", now)
		unstarred := insertMsg(t, repo, "sweep", "u1", "unstarred", now.Add(time.Second))
		insertMsg(t, repo, "sweep", "u1", "drop", now.Add(2*time.Second))
		other := insertMsg(t, repo, "sweep-other", "u1", "other", now)

		_, err := repo.ToggleStar(ctx, keep.ID, "u2")
		require.NoError(t, err)
		// Yıldızı kaldırılan mesajın boş starred_by'ı da süpürülür.
		_, err = repo.ToggleStar(ctx, unstarred.ID, "u2")
		require.NoError(t, err)
		_, err = repo.ToggleStar(ctx, unstarred.ID, "u2")
		require.NoError(t, err)

		n, err := repo.SweepUnstarred(ctx, "sweep")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		list, err := repo.ListVisible(ctx, "sweep", "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"keep"}, texts(list))

		_, err = repo.GetByID(ctx, other.ID)
		assert.NoError(t, err)
	})
}
