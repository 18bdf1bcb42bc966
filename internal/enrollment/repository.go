package enrollment

import (
	"context"
	"errors"
	"log"
	"time"

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

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// IsEnrolled is a single lookup on the (student_id, course_id) unique index.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		log.Printf("Error checking enrollment of student %d in course %d: %v", studentID, courseID, err)
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repository) Find(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repository) Create(ctx context.Context, e *models.Enrollment) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.ErrAlreadyEnrolled
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, studentID, courseID uint) error {
	result := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Delete(&models.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, e *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *Repository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

// RecountEnrollments rewrites course.total_enrollments from the rows.
func (r *Repository) RecountEnrollments(ctx context.Context, courseID uint) (int, error) {
	var n int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&n).Error; err != nil {
		return 0, err
	}
	err := db.Model(&models.Course{}).Where("id = ?", courseID).
		UpdateColumn("total_enrollments", n).Error
	return int(n), err
}

func (r *Repository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := r.db.WithContext(ctx).Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&out).Error
	return out, err
}

type Student struct {
	StudentID  uint                    `json:"student_id"`
	Username   string                  `json:"username"`
	Email      string                  `json:"email"`
	Status     models.EnrollmentStatus `json:"status"`
	Progress   int                     `json:"progress"`
	EnrolledAt time.Time               `json:"enrolled_at"`
}

func (r *Repository) ListStudents(ctx context.Context, courseID uint) ([]Student, error) {
	var out []Student
	err := r.db.WithContext(ctx).Table("enrollments").
		Select("enrollments.student_id, users.username, users.email, enrollments.status, enrollments.progress, enrollments.enrolled_at").
		Joins("JOIN users ON users.id = enrollments.student_id").
		Where("enrollments.course_id = ?", courseID).
		Order("enrollments.enrolled_at").
		Scan(&out).Error
	return out, err
}
