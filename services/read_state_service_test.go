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

func TestComputeTickStatus(t *testing.T) {
	cases := []struct {
		name    string
		readBy  []string
		members []string
		sender  string
		want    models.TickStatus
	}{
		{"no members known", []string{"b"}, nil, "a", models.TickUnknown},
		{"nobody read", nil, []string{"a", "b", "c"}, "a", models.TickSent},
		{"partial", []string{"b"}, []string{"a", "b", "c"}, "a", models.TickSent},
		{"everyone but sender", []string{"c", "b"}, []string{"a", "b", "c"}, "a", models.TickDeliveredAll},
		{"sender read does not count", []string{"a"}, []string{"a", "b"}, "a", models.TickSent},
		{"sender alone", nil, []string{"a"}, "a", models.TickDeliveredAll},
		{"non-member readers ignored", []string{"x", "b"}, []string{"a", "b"}, "a", models.TickDeliveredAll},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTickStatus(tc.readBy, tc.members, tc.sender))
		})
	}
}

func TestMarkRead_BroadcastsToOthersAndIsIdempotent(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	st.send(t, "alice", "A", "kuzey", "m1")
	st.send(t, "alice", "A", "kuzey", "m2")
	st.hub.reset()

	n, err := st.reads.MarkRead(ctx, "kuzey", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	sent := st.hub.all()
	require.Len(t, sent, 1)
	assert.Equal(t, ws.OpMessagesReadUpdate, sent[0].Event.Op)
	assert.Equal(t, "bob", sent[0].Except)
	assert.Equal(t, ws.ReadUpdateData{UserID: "bob", Village: "kuzey"}, sent[0].Event.Data)

	n, err = st.reads.MarkRead(ctx, "kuzey", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	list, err := st.messages.List(ctx, "kuzey", "alice")
	require.NoError(t, err)
	for _, m := range list {
		assert.Equal(t, []string{"bob"}, m.ReadBy)
	}
}

func TestStatus_FollowsMembersAndReads(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	m := st.send(t, "alice", "A", "kuzey", "hello")

	// Üye bilinmiyor.
	status, err := st.reads.Status(ctx, "kuzey", m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TickUnknown, status.Status)

	for _, u := range []string{"alice", "bob", "carol"} {
		require.NoError(t, st.members.Join(ctx, models.Identity{UserID: u}, "kuzey"))
	}

	status, err = st.reads.Status(ctx, "kuzey", m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TickSent, status.Status)
	assert.Equal(t, 0, status.ReadCount)
	assert.Equal(t, 2, status.MemberCount)

	_, err = st.reads.MarkRead(ctx, "kuzey", "bob")
	require.NoError(t, err)
	_, err = st.reads.MarkRead(ctx, "kuzey", "carol")
	require.NoError(t, err)

	status, err = st.reads.Status(ctx, "kuzey", m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TickDeliveredAll, status.Status)
	assert.Equal(t, 2, status.ReadCount)

	_, err = st.reads.Status(ctx, "guney", m.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
