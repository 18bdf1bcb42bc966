package course

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Course{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateCourse(ctx context.Context, c *models.Course) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: slug %q already taken", errs.ErrConflict, c.Slug)
	}
	if err != nil {
		log.Printf("Error creating course: %v", err)
		return err
	}
	log.Printf("Created course with ID: %d", c.ID)
	return nil
}

func (r *Repository) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var c models.Course
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repository) UpdateCourse(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteCourse soft-deletes; the slug stays reserved.
func (r *Repository) DeleteCourse(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Course{}, id).Error
}

func (r *Repository) CourseQuizIDs(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Quiz{}).
		Joins("JOIN lessons ON lessons.id = quizzes.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Pluck("quizzes.id", &ids).Error
	return ids, err
}

func (r *Repository) LessonQuizIDs(ctx context.Context, lessonID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Quiz{}).
		Where("lesson_id = ?", lessonID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) CountCourseAttempts(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Joins("JOIN lessons ON lessons.id = quizzes.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *Repository) ListPublished(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CoursePublished).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var out []models.Course
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) Lessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var out []models.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index").
		Find(&out).Error
	return out, err
}

func (r *Repository) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	var l models.Lesson
	if err := r.db.WithContext(ctx).Preload("Course").First(&l, id).Error; err != nil {
		return nil, notFound(err)
	}
	if l.Course == nil {
		return nil, errs.ErrNotFound
	}
	return &l, nil
}

func (r *Repository) NextLessonOrder(ctx context.Context, courseID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max + 1, err
}

func (r *Repository) CreateLesson(ctx context.Context, l *models.Lesson) error {
	err := r.db.WithContext(ctx).Create(l).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: a lesson with order %d already exists", errs.ErrConflict, l.Order)
	}
	return err
}

func (r *Repository) UpdateLesson(ctx context.Context, id uint, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(fields).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: a lesson with that order already exists", errs.ErrConflict)
	}
	return err
}

// DeleteLesson removes the lesson together with its quiz and questions. A
// lesson whose quiz has attempts is kept, since attempts are permanent.
func (r *Repository) DeleteLesson(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	var quiz models.Quiz
	err := db.Where("lesson_id = ?", id).First(&quiz).Error
	switch {
	case err == nil:
		var attempts int64
		if err := db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&attempts).Error; err != nil {
			return err
		}
		if attempts > 0 {
			return fmt.Errorf("%w: the lesson's quiz has %d attempts", errs.ErrConflict, attempts)
		}
		if err := db.Where("quiz_id = ?", quiz.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		if err := db.Delete(&quiz).Error; err != nil {
			return err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	return db.Delete(&models.Lesson{}, id).Error
}
