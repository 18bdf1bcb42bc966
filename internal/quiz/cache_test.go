package quiz

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/testutil"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/cache"
)

type memoryCache struct {
	mu          sync.Mutex
	quizzes     map[uint]models.Quiz
	boards      map[uint][]models.LeaderboardEntry
	quizHits    int
	boardHits   int
	invalidated []uint
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		quizzes: map[uint]models.Quiz{},
		boards:  map[uint][]models.LeaderboardEntry{},
	}
}

func (c *memoryCache) GetQuiz(_ context.Context, id uint) (*models.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quizzes[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	c.quizHits++
	return &q, nil
}

func (c *memoryCache) SetQuiz(_ context.Context, quiz *models.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = *quiz
	return nil
}

func (c *memoryCache) InvalidateQuiz(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.quizzes, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func (c *memoryCache) GetLeaderboard(_ context.Context, quizID uint, limit int) ([]models.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.boards[quizID]
	if !ok {
		return nil, cache.ErrMiss
	}
	c.boardHits++
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]models.LeaderboardEntry(nil), entries...), nil
}

func (c *memoryCache) SetLeaderboard(_ context.Context, quizID uint, entries []models.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[quizID] = append([]models.LeaderboardEntry(nil), entries...)
	return nil
}

func (c *memoryCache) InvalidateLeaderboard(_ context.Context, quizID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, quizID)
	return nil
}

func TestQuizIsReadThroughCache(t *testing.T) {
	f := newFixture(t)
	c := newMemoryCache()
	f.engine.cache = c
	f.catalog.cache = c
	ctx := context.Background()
	student := testutil.Principal(f.student)
	quiz := f.quiz(t, models.Quiz{}, 1, 1)

	first, err := f.engine.StartOrResume(ctx, student, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quiz", first.Quiz.Title)
	assert.Zero(t, c.quizHits)

	require.NoError(t, f.db.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Update("title", "Changed behind the cache").Error)
	resumed, err := f.engine.StartOrResume(ctx, student, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.quizHits)
	assert.Equal(t, "Quiz", resumed.Quiz.Title)
	assert.Len(t, resumed.Questions, 2)

	_, err = f.catalog.UpdateQuiz(ctx, testutil.Principal(f.instructor), quiz.ID, QuizInput{Title: "Edited", IsPublished: true})
	require.NoError(t, err)
	assert.Contains(t, c.invalidated, quiz.ID)

	fresh, err := f.engine.StartOrResume(ctx, student, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", fresh.Quiz.Title)
}

func TestLeaderboardIsCachedUntilAnAttemptCompletes(t *testing.T) {
	f := newFixture(t)
	c := newMemoryCache()
	f.engine.cache = c
	ctx := context.Background()
	quiz := f.quiz(t, models.Quiz{}, 1)

	take := func(u *models.User) {
		view, err := f.engine.StartOrResume(ctx, testutil.Principal(u), quiz.ID)
		require.NoError(t, err)
		_, err = f.engine.Submit(ctx, testutil.Principal(u), view.Attempt.ID, allCorrect(quiz))
		require.NoError(t, err)
	}
	take(f.student)

	board, err := f.engine.Leaderboard(ctx, testutil.Principal(f.student), quiz.ID, 0)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Zero(t, c.boardHits)

	board, err = f.engine.Leaderboard(ctx, testutil.Principal(f.student), quiz.ID, 0)
	require.NoError(t, err)
	assert.Len(t, board, 1)
	assert.Equal(t, 1, c.boardHits)

	second := testutil.CreateUser(t, f.db, "second", models.RoleStudent)
	testutil.Enroll(t, f.db, second, f.course)
	take(second)

	board, err = f.engine.Leaderboard(ctx, testutil.Principal(f.student), quiz.ID, 0)
	require.NoError(t, err)
	assert.Len(t, board, 2)
	assert.Equal(t, 1, c.boardHits)
}
