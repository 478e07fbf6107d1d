package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboard(t *testing.T) *Leaderboard {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLeaderboard(client)
}

func TestLeaderboardTopAndRank(t *testing.T) {
	ctx := context.Background()
	lb := newTestLeaderboard(t)

	require.NoError(t, lb.SetScore(ctx, "ana", 1200))
	require.NoError(t, lb.SetScore(ctx, "ben", 300))
	require.NoError(t, lb.SetScore(ctx, "cai", 1200))
	require.NoError(t, lb.SetScore(ctx, "dee", 50))
	require.NoError(t, lb.SetScore(ctx, "ben", 700))

	top, err := lb.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, 1200, top[0].Points)
	assert.Equal(t, 1200, top[1].Points)
	assert.Equal(t, Score{UserID: "ben", Points: 700}, top[2])

	cases := map[string]int64{"ana": 1, "cai": 1, "ben": 3, "dee": 4}
	for user, want := range cases {
		got, err := lb.Rank(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, want, got, user)
	}

	_, err = lb.Rank(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotRanked)
}

func TestLeaderboardReplace(t *testing.T) {
	ctx := context.Background()
	lb := newTestLeaderboard(t)
	require.NoError(t, lb.SetScore(ctx, "stale", 9999))

	require.NoError(t, lb.Replace(ctx, []Score{{UserID: "a", Points: 10}, {UserID: "b", Points: 20}}))

	size, err := lb.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Score{{UserID: "b", Points: 20}, {UserID: "a", Points: 10}}, top)

	require.NoError(t, lb.Replace(ctx, nil))
	size, err = lb.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}
