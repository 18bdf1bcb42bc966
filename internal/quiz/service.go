package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"gorm.io/datatypes"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/metrics"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/cache"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100

	reasonSubmitted = "submitted"
	reasonExpired   = "expired"

	// submitGrace is how long after the deadline a submission's own answers
	// still count.
	submitGrace = 30 * time.Second
)

// Cache is the subset of the redis cache the quiz package reads through.
type Cache interface {
	GetQuiz(ctx context.Context, id uint) (*models.Quiz, error)
	SetQuiz(ctx context.Context, quiz *models.Quiz) error
	InvalidateQuiz(ctx context.Context, id uint) error
	GetLeaderboard(ctx context.Context, quizID uint, limit int) ([]models.LeaderboardEntry, error)
	SetLeaderboard(ctx context.Context, quizID uint, entries []models.LeaderboardEntry) error
	InvalidateLeaderboard(ctx context.Context, quizID uint) error
}

// Notifier pushes live attempt events to watchers of a quiz.
type Notifier interface {
	Publish(room, messageType string, data interface{})
}

type noCache struct{}

func (noCache) GetQuiz(context.Context, uint) (*models.Quiz, error) { return nil, cache.ErrMiss }
func (noCache) SetQuiz(context.Context, *models.Quiz) error { return nil }
func (noCache) InvalidateQuiz(context.Context, uint) error { return nil }
func (noCache) GetLeaderboard(context.Context, uint, int) ([]models.LeaderboardEntry, error) {
	return nil, cache.ErrMiss
}
func (noCache) SetLeaderboard(context.Context, uint, []models.LeaderboardEntry) error { return nil }
func (noCache) InvalidateLeaderboard(context.Context, uint) error { return nil }

type noNotifier struct{}

func (noNotifier) Publish(string, string, interface{}) {}

// Room is the websocket room that carries a quiz's live events.
func Room(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

// Engine runs quiz attempts: start or resume, timing, expiry, submission
// and results.
type Engine struct {
	repo        *Repository
	policy      *access.Policy
	enrollments access.EnrollmentChecker
	cache       Cache
	notifier    Notifier
	now         func() time.Time
	shuffle     func(questions []models.Question, seed int64)
}

func NewEngine(repo *Repository, policy *access.Policy, enrollments access.EnrollmentChecker, c Cache, n Notifier) *Engine {
	if c == nil {
		c = noCache{}
	}
	if n == nil {
		n = noNotifier{}
	}
	return &Engine{
		repo:        repo,
		policy:      policy,
		enrollments: enrollments,
		cache:       c,
		notifier:    n,
		now:         time.Now,
		shuffle:     shuffleQuestions,
	}
}

// shuffleQuestions is seeded by the attempt so a resumed attempt sees the
// same order.
func shuffleQuestions(questions []models.Question, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

func (e *Engine) loadQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := e.cache.GetQuiz(ctx, quizID)
	if err == nil {
		return quiz, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Error reading quiz %d from cache: %v", quizID, err)
	}

	quiz, err = e.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetQuiz(ctx, quiz); err != nil {
		log.Printf("Error caching quiz %d: %v", quizID, err)
	}
	return quiz, nil
}

// StartOrResume returns the student's in-progress attempt, or creates the
// next one. An in-progress attempt whose time ran out is completed first and
// counts toward the attempt limit.
func (e *Engine) StartOrResume(ctx context.Context, p *models.Principal, quizID uint) (*models.AttemptView, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	quiz, err := e.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, errs.ErrQuizUnpublished
	}
	enrolled, err := e.enrollments.IsEnrolled(ctx, p.UserID, quiz.CourseID())
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errs.ErrNotEnrolled
	}

	existing, err := e.repo.InProgressAttempt(ctx, p.UserID, quiz.ID)
	switch {
	case err == nil:
		expired, err := e.ExpireIfDue(ctx, existing, quiz)
		if err != nil {
			return nil, err
		}
		if !expired {
			return e.view(quiz, existing, true), nil
		}
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	attempt, resumed, err := e.begin(ctx, p.UserID, quiz)
	if errors.Is(err, errDuplicateAttempt) {
		// A concurrent request created it; hand back the same attempt.
		attempt, err = e.repo.InProgressAttempt(ctx, p.UserID, quiz.ID)
		resumed = true
	}
	if err != nil {
		return nil, err
	}

	if !resumed {
		metrics.AttemptsStarted.Inc()
		log.Printf("Student %d started attempt %d of quiz %d", p.UserID, attempt.AttemptNumber, quiz.ID)
		e.notifier.Publish(Room(quiz.ID), "attempt_started", event(attempt))
	}
	return e.view(quiz, attempt, resumed), nil
}

func (e *Engine) begin(ctx context.Context, studentID uint, quiz *models.Quiz) (*models.QuizAttempt, bool, error) {
	var (
		attempt *models.QuizAttempt
		resumed bool
	)
	err := e.repo.Transaction(ctx, func(repo *Repository) error {
		current, err := repo.InProgressAttempt(ctx, studentID, quiz.ID)
		if err == nil {
			attempt, resumed = current, true
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		used, err := repo.CountAttempts(ctx, studentID, quiz.ID)
		if err != nil {
			return err
		}
		if quiz.MaxAttempts > 0 && used >= quiz.MaxAttempts {
			return fmt.Errorf("%w: %d of %d attempts used", errs.ErrMaxAttemptsReached, used, quiz.MaxAttempts)
		}

		attempt = &models.QuizAttempt{
			StudentID:     studentID,
			QuizID:        quiz.ID,
			AttemptNumber: used + 1,
			Status:        models.AttemptInProgress,
			Answers:       datatypes.NewJSONType(models.Answers{}),
			StartedAt:     e.now(),
		}
		return repo.CreateAttempt(ctx, attempt)
	})
	return attempt, resumed, err
}

func (e *Engine) view(quiz *models.Quiz, attempt *models.QuizAttempt, resumed bool) *models.AttemptView {
	questions := make([]models.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	if quiz.ShuffleQuestions {
		e.shuffle(questions, int64(attempt.ID))
	}

	dtos := make([]models.QuestionDTO, 0, len(questions))
	for _, q := range questions {
		dtos = append(dtos, q.ToDTO(false))
	}

	a := *attempt
	a.Quiz = nil
	return &models.AttemptView{
		Attempt:       a,
		Quiz:          quiz.Summary(),
		Questions:     dtos,
		TimeRemaining: e.remaining(attempt, quiz),
		Resumed:       resumed,
	}
}

// remaining is whole seconds left, rounded up, or nil when untimed.
func (e *Engine) remaining(attempt *models.QuizAttempt, quiz *models.Quiz) *int {
	deadline, ok := attempt.Deadline(quiz)
	if !ok || !attempt.InProgress() {
		return nil
	}
	secs := 0
	if left := deadline.Sub(e.now()); left > 0 {
		secs = int(math.Ceil(left.Seconds()))
	}
	return &secs
}

// ownAttempt loads an attempt that belongs to the principal.
func (e *Engine) ownAttempt(ctx context.Context, p *models.Principal, attemptID uint) (*models.QuizAttempt, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	attempt, err := e.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != p.UserID {
		return nil, errs.ErrPermissionDenied
	}
	return attempt, nil
}

// TimeRemaining returns nil for untimed or finished attempts. Reaching zero
// expires the attempt.
func (e *Engine) TimeRemaining(ctx context.Context, p *models.Principal, attemptID uint) (*int, error) {
	attempt, err := e.ownAttempt(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	left := e.remaining(attempt, attempt.Quiz)
	if left != nil && *left == 0 {
		if _, err := e.ExpireIfDue(ctx, attempt, attempt.Quiz); err != nil {
			return nil, err
		}
	}
	return left, nil
}

// ExpireIfDue completes an in-progress attempt whose deadline has passed,
// scoring whatever answers it holds. It reports whether the attempt is now
// closed because time ran out.
func (e *Engine) ExpireIfDue(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) (bool, error) {
	if !attempt.InProgress() {
		return false, nil
	}
	deadline, ok := attempt.Deadline(quiz)
	if !ok || e.now().Before(deadline) {
		return false, nil
	}

	_, err := e.complete(ctx, attempt, quiz, attempt.Answers.Data(), reasonExpired)
	if errors.Is(err, errs.ErrAlreadyCompleted) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// complete scores answers against the quiz's current questions and moves
// the attempt to completed. Only one caller can win; the rest get
// ErrAlreadyCompleted.
func (e *Engine) complete(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz, answers models.Answers, reason string) (*models.QuizAttempt, error) {
	var done models.QuizAttempt
	err := e.repo.Transaction(ctx, func(repo *Repository) error {
		questions, err := repo.Questions(ctx, quiz.ID)
		if err != nil {
			return err
		}
		known := KnownAnswers(questions, answers)
		score := ScoreAnswers(questions, known, quiz.PassingScore)

		now := e.now()
		done = *attempt
		done.Quiz = nil
		done.Status = models.AttemptCompleted
		done.Score = float64(score.Earned)
		done.Percentage = score.Percentage
		done.Passed = score.Passed
		done.Answers = datatypes.NewJSONType(known)
		done.CompletedAt = &now
		done.TimeTaken = timeTaken(attempt, quiz, now)

		ok, err := repo.CompleteAttempt(ctx, &done)
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrAlreadyCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AttemptsCompleted.WithLabelValues(reason).Inc()
	metrics.AttemptPercentage.Observe(done.Percentage)
	log.Printf("Attempt %d completed (%s): %.1f%%", done.ID, reason, done.Percentage)
	if err := e.cache.InvalidateLeaderboard(ctx, quiz.ID); err != nil {
		log.Printf("Error invalidating leaderboard for quiz %d: %v", quiz.ID, err)
	}
	e.notifier.Publish(Room(quiz.ID), "attempt_completed", event(&done))
	return &done, nil
}

// timeTaken never exceeds the time limit; a late submission is capped.
func timeTaken(attempt *models.QuizAttempt, quiz *models.Quiz, now time.Time) int {
	elapsed := now.Sub(attempt.StartedAt)
	if limit := quiz.TimeLimitDuration(); limit > 0 && elapsed > limit {
		elapsed = limit
	}
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Seconds())
}

func event(a *models.QuizAttempt) models.AttemptEvent {
	at := a.StartedAt
	if a.CompletedAt != nil {
		at = *a.CompletedAt
	}
	return models.AttemptEvent{
		AttemptID:     a.ID,
		StudentID:     a.StudentID,
		AttemptNumber: a.AttemptNumber,
		Status:        string(a.Status),
		Percentage:    a.Percentage,
		Passed:        a.Passed,
		At:            at,
	}
}

// Submit scores the attempt. Every question must be answered unless the
// time limit has passed. A late submission inside the grace window scores
// the answers it carries; after that only the answers already stored on the
// attempt count.
func (e *Engine) Submit(ctx context.Context, p *models.Principal, attemptID uint, answers models.Answers) (*models.AttemptResults, error) {
	attempt, err := e.ownAttempt(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.InProgress() {
		return nil, errs.ErrAlreadyCompleted
	}
	quiz := attempt.Quiz

	questions, err := e.repo.Questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	known := KnownAnswers(questions, answers)

	reason := reasonSubmitted
	if deadline, ok := attempt.Deadline(quiz); ok && !e.now().Before(deadline) {
		reason = reasonExpired
		if !e.now().Before(deadline.Add(submitGrace)) {
			known = KnownAnswers(questions, attempt.Answers.Data())
		}
	} else if missing := MissingAnswers(questions, known); len(missing) > 0 {
		return nil, &errs.IncompleteAnswersError{Missing: missing}
	}

	done, err := e.complete(ctx, attempt, quiz, known, reason)
	if err != nil {
		return nil, err
	}
	return buildResults(done, quiz, questions, quiz.ShowAnswers), nil
}

// Results is available to the attempt's owner and to course managers.
// Correct answers are shown to students only when the quiz allows it.
func (e *Engine) Results(ctx context.Context, p *models.Principal, attemptID uint) (*models.AttemptResults, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	attempt, err := e.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	quiz := attempt.Quiz
	manager := e.policy.CanManage(p, quiz.Lesson.Course)
	if attempt.StudentID != p.UserID && !manager {
		return nil, errs.ErrPermissionDenied
	}

	if attempt.InProgress() {
		expired, err := e.ExpireIfDue(ctx, attempt, quiz)
		if err != nil {
			return nil, err
		}
		if !expired {
			return nil, fmt.Errorf("%w: attempt is still in progress", errs.ErrConflict)
		}
		if attempt, err = e.repo.GetAttempt(ctx, attemptID); err != nil {
			return nil, err
		}
	}

	questions, err := e.repo.Questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return buildResults(attempt, quiz, questions, quiz.ShowAnswers || manager), nil
}

func buildResults(attempt *models.QuizAttempt, quiz *models.Quiz, questions []models.Question, reveal bool) *models.AttemptResults {
	answers := attempt.Answers.Data()
	results := make([]models.QuestionResult, 0, len(questions))
	for _, q := range questions {
		r := models.QuestionResult{
			QuestionID: q.ID,
			Text:       q.Text,
			UserAnswer: answers[q.ID],
			IsCorrect:  q.IsCorrect(answers[q.ID]),
			Points:     q.Points,
		}
		if r.IsCorrect {
			r.PointsAwarded = q.Points
		}
		if reveal {
			r.CorrectAnswer = q.CorrectAnswer
			r.Explanation = q.Explanation
		}
		results = append(results, r)
	}

	a := *attempt
	a.Quiz = nil
	return &models.AttemptResults{
		Attempt:   a,
		Quiz:      quiz.Summary(),
		Questions: results,
	}
}

func (e *Engine) Statistics(ctx context.Context, p *models.Principal, quizID uint) (*models.QuizStatistics, error) {
	quiz, err := e.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := e.policy.RequireManage(p, quiz.Lesson.Course); err != nil {
		return nil, err
	}
	attempts, err := e.repo.CompletedAttempts(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStatistics(quiz.ID, quiz.Questions, attempts)
	return &stats, nil
}

func (e *Engine) MyAttempts(ctx context.Context, p *models.Principal) ([]models.QuizAttempt, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	return e.repo.AttemptsByStudent(ctx, p.UserID)
}

// Leaderboard ranks students by best completed percentage. Unpublished
// quizzes are only visible to course managers.
func (e *Engine) Leaderboard(ctx context.Context, p *models.Principal, quizID uint, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = defaultLeaderboardSize
	}
	quiz, err := e.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished && !e.policy.CanManage(p, quiz.Lesson.Course) {
		return nil, errs.ErrNotFound
	}

	entries, err := e.cache.GetLeaderboard(ctx, quiz.ID, limit)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Error reading leaderboard for quiz %d: %v", quiz.ID, err)
	}

	// Cache the full ranking so any limit can be served from it.
	all, err := e.repo.Leaderboard(ctx, quiz.ID, -1)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetLeaderboard(ctx, quiz.ID, all); err != nil {
		log.Printf("Error caching leaderboard for quiz %d: %v", quiz.ID, err)
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
