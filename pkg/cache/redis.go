// backend/pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"elephant-quiz/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	bankKey        = "quiz:bank"
	leaderboardKey = "leaderboard:best"
	bankTTL        = time.Hour
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SetBank(ctx context.Context, questions []models.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bankKey, data, bankTTL).Err()
}

// GetBank returns redis.Nil when the bank is not cached.
func (c *RedisCache) GetBank(ctx context.Context) ([]models.Question, error) {
	data, err := c.client.Get(ctx, bankKey).Bytes()
	if err != nil {
		return nil, err
	}
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// RecordScore keeps the best score per player.
func (c *RedisCache) RecordScore(ctx context.Context, username string, score int) error {
	return c.client.ZAddArgs(ctx, leaderboardKey, redis.ZAddArgs{
		GT: true,
		Members: []redis.Z{{
			Score:  float64(score),
			Member: username,
		}},
	}).Err()
}

func (c *RedisCache) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		username, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Username: username,
			Score:    int(z.Score),
		})
	}
	return entries, nil
}
