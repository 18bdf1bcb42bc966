package review

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}

func (r *Repository) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

func (r *Repository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *Repository) FindEnrollment(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *Repository) CourseReviewExists(ctx context.Context, courseID, studentID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CourseReview{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&n).Error
	return n > 0, err
}

// UpsertCourseReview writes the student's single review of a course and
// reloads it.
func (r *Repository) UpsertCourseReview(ctx context.Context, review *models.CourseReview) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"rating", "title", "comment", "would_recommend", "difficulty_rating", "is_verified", "updated_at",
		}),
	}).Omit("Student").Create(review).Error
	if err != nil {
		return err
	}
	var stored models.CourseReview
	err = db.Where("course_id = ? AND student_id = ?", review.CourseID, review.StudentID).First(&stored).Error
	if err != nil {
		return err
	}
	*review = stored
	return nil
}

func (r *Repository) UpsertInstructorReview(ctx context.Context, review *models.InstructorReview) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "instructor_id"}, {Name: "student_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"rating", "comment", "clarity_rating", "responsiveness_rating", "updated_at",
		}),
	}).Create(review).Error
	if err != nil {
		return err
	}
	var stored models.InstructorReview
	err = db.Where("instructor_id = ? AND student_id = ? AND course_id = ?",
		review.InstructorID, review.StudentID, review.CourseID).First(&stored).Error
	if err != nil {
		return err
	}
	*review = stored
	return nil
}

type ratingTotals struct {
	Sum   int64
	Total int64
}

// average is the mean rating rounded half away from zero to two decimals.
func (t ratingTotals) average() float64 {
	if t.Total == 0 {
		return 0
	}
	return decimal.NewFromInt(t.Sum).
		DivRound(decimal.NewFromInt(t.Total), 2).
		InexactFloat64()
}

func (r *Repository) ratingTotals(ctx context.Context, model interface{}, column string, id uint) (ratingTotals, error) {
	var t ratingTotals
	err := r.db.WithContext(ctx).Model(model).
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS total").
		Where(column+" = ?", id).
		Scan(&t).Error
	return t, err
}

// RecountCourseRating rewrites the course's average rating and review count
// from its reviews.
func (r *Repository) RecountCourseRating(ctx context.Context, courseID uint) (float64, int, error) {
	t, err := r.ratingTotals(ctx, &models.CourseReview{}, "course_id", courseID)
	if err != nil {
		return 0, 0, err
	}
	avg := t.average()
	err = r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).
		UpdateColumns(map[string]interface{}{
			"average_rating": avg,
			"total_reviews":  t.Total,
		}).Error
	return avg, int(t.Total), err
}

func (r *Repository) RecountInstructorRating(ctx context.Context, instructorID uint) (float64, int, error) {
	t, err := r.ratingTotals(ctx, &models.InstructorReview{}, "instructor_id", instructorID)
	if err != nil {
		return 0, 0, err
	}
	avg := t.average()
	err = r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", instructorID).
		UpdateColumns(map[string]interface{}{
			"instructor_rating":        avg,
			"total_instructor_reviews": t.Total,
		}).Error
	return avg, int(t.Total), err
}

// ListCourseReviews returns newest first with the author's name and the
// number of helpful votes.
func (r *Repository) ListCourseReviews(ctx context.Context, courseID uint) ([]models.ReviewListItem, error) {
	var out []models.ReviewListItem
	err := r.db.WithContext(ctx).Table("course_reviews").
		Select(`course_reviews.*, users.username AS student_name,
			(SELECT COUNT(*) FROM review_helpful WHERE review_helpful.review_id = course_reviews.id) AS helpful_count`).
		Joins("JOIN users ON users.id = course_reviews.student_id").
		Where("course_reviews.course_id = ?", courseID).
		Order("course_reviews.created_at DESC, course_reviews.id DESC").
		Scan(&out).Error
	return out, err
}

func (r *Repository) GetCourseReview(ctx context.Context, id uint) (*models.CourseReview, error) {
	var review models.CourseReview
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &review, nil
}

// ToggleHelpful removes the user's vote if present, otherwise adds it.
func (r *Repository) ToggleHelpful(ctx context.Context, reviewID, userID uint) (bool, error) {
	db := r.db.WithContext(ctx)
	result := db.Where("review_id = ? AND user_id = ?", reviewID, userID).Delete(&models.ReviewHelpful{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}
	if err := db.Create(&models.ReviewHelpful{ReviewID: reviewID, UserID: userID}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) CountHelpful(ctx context.Context, reviewID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReviewHelpful{}).Where("review_id = ?", reviewID).Count(&n).Error
	return n, err
}
