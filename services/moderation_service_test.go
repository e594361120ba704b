package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/ws"
)

func TestDeleteForEveryone_TombstonesAndBroadcasts(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	m := st.send(t, "alice", "Alice", "kuzey", "secret")
	_, err := st.react.React(ctx, m.ID, "bob", "👍")
	require.NoError(t, err)
	st.hub.reset()

	deleted, err := st.mod.DeleteForEveryone(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, models.DeletedPlaceholder, deleted.Text)
	assert.Empty(t, deleted.Reactions)

	assert.Equal(t, []string{ws.OpMessageUpdated, ws.OpMessageDeleted}, st.hub.ops())
	assert.Equal(t, ws.MessageDeletedData{ID: m.ID, Village: "kuzey"}, st.hub.all()[1].Event.Data)

	// Tekrar silmek aynı sonucu verir.
	again, err := st.mod.DeleteForEveryone(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, deleted.Text, again.Text)
	assert.True(t, again.IsDeleted)
}

func TestDeleteForEveryone_ByOtherUserIsUnauthorized(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	m := st.send(t, "alice", "Alice", "kuzey", "mine")
	st.hub.reset()

	_, err := st.mod.DeleteForEveryone(ctx, m.ID, "bob")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Empty(t, st.hub.all())

	stored, err := st.repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)
	assert.Equal(t, "mine", stored.Text)

	_, err = st.mod.DeleteForEveryone(ctx, "missing", "alice")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestDeleteMany_OnlyOwnedAndGroupedByVillage(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	a := st.send(t, "alice", "A", "kuzey", "a")
	b := st.send(t, "alice", "A", "guney", "b")
	foreign := st.send(t, "bob", "B", "kuzey", "c")
	st.hub.reset()

	deleted, err := st.mod.DeleteMany(ctx, []string{a.ID, b.ID, foreign.ID, "missing"}, "alice")
	require.NoError(t, err)
	require.Len(t, deleted, 2)

	sent := st.hub.all()
	require.Len(t, sent, 4)
	assert.Equal(t, ws.OpMessageUpdated, sent[0].Event.Op)
	assert.Equal(t, ws.OpMessageUpdated, sent[1].Event.Op)

	bulk := map[string][]string{}
	for _, s := range sent[2:] {
		require.Equal(t, ws.OpBulkDelete, s.Event.Op)
		d := s.Event.Data.(ws.BulkDeleteData)
		assert.Equal(t, s.Village, d.Village)
		bulk[d.Village] = d.IDs
	}
	assert.Equal(t, map[string][]string{"kuzey": {a.ID}, "guney": {b.ID}}, bulk)

	stored, err := st.repo.GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)
}

func TestDeleteMany_NothingOwnedBroadcastsNothing(t *testing.T) {
	st := newTestStack(t)
	foreign := st.send(t, "bob", "B", "kuzey", "c")
	st.hub.reset()

	deleted, err := st.mod.DeleteMany(context.Background(), []string{foreign.ID}, "alice")
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Empty(t, st.hub.all())

	_, err = st.mod.DeleteMany(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestDeleteForMe_IsNotBroadcast(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	m := st.send(t, "alice", "A", "kuzey", "a")
	st.hub.reset()

	n, err := st.mod.DeleteForMe(ctx, []string{m.ID, "missing"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, st.hub.all())

	// Gizleme ve tombstone bağımsızdır.
	deleted, err := st.mod.DeleteForEveryone(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, []string{"bob"}, deleted.DeletedBy)
}

func TestClearChat_KeepsStarredMessages(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	m1 := st.send(t, "alice", "A", "kuzey", "keep me")
	m2 := st.send(t, "alice", "A", "kuzey", "drop me")
	_, err := st.react.ToggleStar(ctx, m1.ID, "bob")
	require.NoError(t, err)
	_, err = st.mod.DeleteForEveryone(ctx, m2.ID, "alice")
	require.NoError(t, err)
	st.hub.reset()

	removed, err := st.mod.ClearChat(ctx, "kuzey", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	list, err := st.messages.List(ctx, "kuzey", "carol")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m1.ID, list[0].ID)

	require.Equal(t, []string{ws.OpChatCleared}, st.hub.ops())
	assert.Equal(t, ws.ChatClearedData{Village: "kuzey", Removed: 1}, st.hub.all()[0].Event.Data)

	_, err = st.mod.ClearChat(ctx, "", "bob")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}
