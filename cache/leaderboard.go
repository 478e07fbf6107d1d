// Package cache keeps hot read models in Redis. The database stays the source of
// truth; everything here can be rebuilt from it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotRanked = errors.New("leaderboard_cache: user not in leaderboard")

const (
	keyLeaderboard = "leaderboard:points"
	leaderboardTTL = 48 * time.Hour
)

type Score struct {
	UserID string
	Points int
}

// Leaderboard is a sorted set of user id -> total points
type Leaderboard struct {
	client *redis.Client
	key    string
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client, key: keyLeaderboard}
}

// Connect parses a redis:// URL and pings the server
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *Leaderboard) SetScore(ctx context.Context, userID string, points int) error {
	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, l.key, redis.Z{Score: float64(points), Member: userID})
	pipe.Expire(ctx, l.key, leaderboardTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Top returns the n highest scores, best first
func (l *Leaderboard) Top(ctx context.Context, n int) ([]Score, error) {
	if n <= 0 {
		return []Score{}, nil
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Score, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, Score{UserID: member, Points: int(z.Score)})
	}
	return out, nil
}

// Rank is 1 + the number of users with strictly more points, so ties share a rank
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int64, error) {
	score, err := l.client.ZScore(ctx, l.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotRanked
	}
	if err != nil {
		return 0, err
	}
	above, err := l.client.ZCount(ctx, l.key, "("+strconv.FormatFloat(score, 'f', -1, 64), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return above + 1, nil
}

func (l *Leaderboard) Size(ctx context.Context) (int64, error) {
	return l.client.ZCard(ctx, l.key).Result()
}

// Replace swaps the whole set for scores in one transaction
func (l *Leaderboard) Replace(ctx context.Context, scores []Score) error {
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, l.key)
	if len(scores) > 0 {
		members := make([]redis.Z, len(scores))
		for i, s := range scores {
			members[i] = redis.Z{Score: float64(s.Points), Member: s.UserID}
		}
		pipe.ZAdd(ctx, l.key, members...)
		pipe.Expire(ctx, l.key, leaderboardTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
