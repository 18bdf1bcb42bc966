package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

// errDuplicateAttempt means another request created the same attempt number
// first.
var errDuplicateAttempt = errors.New("duplicate attempt number")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("order_index, id")
}

func (r *Repository) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).Preload("Course").First(&lesson, id).Error; err != nil {
		return nil, notFound(err)
	}
	if lesson.Course == nil {
		return nil, errs.ErrNotFound
	}
	return &lesson, nil
}

// GetQuiz loads the quiz with its lesson, course and ordered questions.
func (r *Repository) GetQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).
		Preload("Lesson.Course").
		Preload("Questions", orderedQuestions).
		First(&quiz, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	if quiz.Lesson == nil || quiz.Lesson.Course == nil {
		return nil, errs.ErrNotFound
	}
	return &quiz, nil
}

func (r *Repository) QuizIDByLesson(ctx context.Context, lessonID uint) (uint, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).Select("id").Where("lesson_id = ?", lessonID).First(&quiz).Error; err != nil {
		return 0, notFound(err)
	}
	return quiz.ID, nil
}

func (r *Repository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	err := r.db.WithContext(ctx).Omit("Lesson", "Questions").Create(quiz).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: lesson %d already has a quiz", errs.ErrConflict, quiz.LessonID)
	}
	if err != nil {
		log.Printf("Error creating quiz: %v", err)
		return err
	}
	log.Printf("Created quiz with ID: %d", quiz.ID)
	return nil
}

func (r *Repository) UpdateQuiz(ctx context.Context, id uint, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		log.Printf("Error updating quiz %d: %v", id, err)
	}
	return err
}

func (r *Repository) CountAllAttempts(ctx context.Context, quizID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID).Count(&n).Error
	return n, err
}

func (r *Repository) DeleteQuiz(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quiz_id = ?", id).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Quiz{}, id).Error
}

func (r *Repository) Questions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var out []models.Question
	err := orderedQuestions(r.db.WithContext(ctx)).Where("quiz_id = ?", quizID).Find(&out).Error
	return out, err
}

func (r *Repository) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := r.db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *Repository) CountQuestions(ctx context.Context, quizID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Question{}).Where("quiz_id = ?", quizID).Count(&n).Error
	return n, err
}

func (r *Repository) CreateQuestion(ctx context.Context, q *models.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *Repository) UpdateQuestion(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Updates(fields).Error
}

func (r *Repository) DeleteQuestion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Question{}, id).Error
}

func (r *Repository) SetQuestionOrder(ctx context.Context, id uint, order int) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).
		UpdateColumn("order_index", order).Error
}

func (r *Repository) InProgressAttempt(ctx context.Context, studentID, quizID uint) (*models.QuizAttempt, error) {
	var a models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptInProgress).
		Order("attempt_number DESC").
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CountAttempts is the live number of attempts, whatever their status.
func (r *Repository) CountAttempts(ctx context.Context, studentID, quizID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&n).Error
	return int(n), err
}

func (r *Repository) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	err := r.db.WithContext(ctx).Omit("Quiz").Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateAttempt
	}
	return err
}

func (r *Repository) GetAttempt(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var a models.QuizAttempt
	if err := r.db.WithContext(ctx).Preload("Quiz.Lesson.Course").First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	if a.Quiz == nil || a.Quiz.Lesson == nil || a.Quiz.Lesson.Course == nil {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// CompleteAttempt flips an in-progress attempt to completed together with
// its score. It reports false when the attempt was already completed.
func (r *Repository) CompleteAttempt(ctx context.Context, a *models.QuizAttempt) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("id = ? AND status = ?", a.ID, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptCompleted,
			"score":        a.Score,
			"percentage":   a.Percentage,
			"passed":       a.Passed,
			"answers":      a.Answers,
			"completed_at": a.CompletedAt,
			"time_taken":   a.TimeTaken,
		})
	if result.Error != nil {
		log.Printf("Error completing attempt %d: %v", a.ID, result.Error)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) AttemptsByStudent(ctx context.Context, studentID uint) ([]models.QuizAttempt, error) {
	var out []models.QuizAttempt
	err := r.db.WithContext(ctx).Preload("Quiz").
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) CompletedAttempts(ctx context.Context, quizID uint) ([]models.QuizAttempt, error) {
	var out []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptCompleted).
		Find(&out).Error
	return out, err
}

// Leaderboard ranks students by their best completed percentage.
func (r *Repository) Leaderboard(ctx context.Context, quizID uint, limit int) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	err := r.db.WithContext(ctx).Table("quiz_attempts").
		Select("quiz_attempts.student_id, users.username, MAX(quiz_attempts.percentage) AS score").
		Joins("JOIN users ON users.id = quiz_attempts.student_id").
		Where("quiz_attempts.quiz_id = ? AND quiz_attempts.status = ?", quizID, models.AttemptCompleted).
		Group("quiz_attempts.student_id, users.username").
		Order("score DESC, users.username").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
