package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func quizKey(id uint) string {
	return fmt.Sprintf("quiz:%d", id)
}

func leaderboardKey(quizID uint) string {
	return fmt.Sprintf("leaderboard:%d", quizID)
}

// SetQuiz stores the quiz with its lesson and questions.
func (c *RedisCache) SetQuiz(ctx context.Context, quiz *models.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quizKey(quiz.ID), data, c.ttl).Err()
}

func (c *RedisCache) GetQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	data, err := c.client.Get(ctx, quizKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *RedisCache) InvalidateQuiz(ctx context.Context, id uint) error {
	return c.client.Del(ctx, quizKey(id)).Err()
}

// SetLeaderboard replaces the quiz's sorted set. Members are
// "<student id>:<username>" so ids survive the round trip.
func (c *RedisCache) SetLeaderboard(ctx context.Context, quizID uint, entries []models.LeaderboardEntry) error {
	key := leaderboardKey(quizID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, entry := range entries {
		pipe.ZAdd(ctx, key, &redis.Z{
			Score:  entry.Score,
			Member: leaderboardMember(entry),
		})
	}
	pipe.Expire(ctx, key, c.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) GetLeaderboard(ctx context.Context, quizID uint, limit int) ([]models.LeaderboardEntry, error) {
	key := leaderboardKey(quizID)

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrMiss
	}

	results, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		entries = append(entries, parseLeaderboardMember(member, z.Score))
	}
	return entries, nil
}

func leaderboardMember(entry models.LeaderboardEntry) string {
	return fmt.Sprintf("%d:%s", entry.StudentID, entry.Username)
}

// parseLeaderboardMember splits on the first colon; usernames may contain
// more.
func parseLeaderboardMember(member string, score float64) models.LeaderboardEntry {
	idPart, username, _ := strings.Cut(member, ":")
	id, _ := strconv.ParseUint(idPart, 10, 64)
	return models.LeaderboardEntry{
		StudentID: uint(id),
		Username:  username,
		Score:     score,
	}
}

func (c *RedisCache) InvalidateLeaderboard(ctx context.Context, quizID uint) error {
	return c.client.Del(ctx, leaderboardKey(quizID)).Err()
}
