package review

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/httpx"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/metrics"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type CourseReviewInput struct {
	Rating           int    `json:"rating" validate:"required,min=1,max=5"`
	Title            string `json:"title" validate:"max=200"`
	Comment          string `json:"comment" validate:"required"`
	WouldRecommend   *bool  `json:"would_recommend"`
	DifficultyRating *int   `json:"difficulty_rating" validate:"omitempty,min=1,max=5"`
}

type InstructorReviewInput struct {
	Rating               int    `json:"rating" validate:"required,min=1,max=5"`
	Comment              string `json:"comment" validate:"required"`
	ClarityRating        *int   `json:"clarity_rating" validate:"omitempty,min=1,max=5"`
	ResponsivenessRating *int   `json:"responsiveness_rating" validate:"omitempty,min=1,max=5"`
}

// CourseReviewResult reports the stored review and the course totals after
// the recount.
type CourseReviewResult struct {
	Review        *models.CourseReview `json:"review"`
	Created       bool                 `json:"created"`
	AverageRating float64              `json:"average_rating"`
	TotalReviews  int                  `json:"total_reviews"`
}

type InstructorReviewResult struct {
	Review           *models.InstructorReview `json:"review"`
	InstructorRating float64                  `json:"instructor_rating"`
	TotalReviews     int                      `json:"total_reviews"`
}

type HelpfulResult struct {
	Action string `json:"action"` // added/removed
	Count  int64  `json:"count"`
}

// enrollment returns the principal's enrollment in the course, or
// ErrNotEnrolled.
func enrollment(ctx context.Context, repo *Repository, p *models.Principal, courseID uint) (*models.Enrollment, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	if _, err := repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	e, err := repo.FindEnrollment(ctx, p.UserID, courseID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: only enrolled students can review this course", errs.ErrNotEnrolled)
	}
	return e, err
}

// UpsertCourseReview creates or replaces the principal's review of a course.
// The review is verified when the enrollment is completed. The course average
// and total are recounted in the same transaction.
func (s *Service) UpsertCourseReview(ctx context.Context, p *models.Principal, courseID uint, in CourseReviewInput) (*CourseReviewResult, error) {
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}

	res := &CourseReviewResult{}
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		e, err := enrollment(ctx, repo, p, courseID)
		if err != nil {
			return err
		}
		exists, err := repo.CourseReviewExists(ctx, courseID, p.UserID)
		if err != nil {
			return err
		}

		review := &models.CourseReview{
			CourseID:         courseID,
			StudentID:        p.UserID,
			Rating:           in.Rating,
			Title:            in.Title,
			Comment:          in.Comment,
			WouldRecommend:   true,
			DifficultyRating: in.DifficultyRating,
			IsVerified:       e.Status == models.EnrollmentCompleted,
		}
		if in.WouldRecommend != nil {
			review.WouldRecommend = *in.WouldRecommend
		}
		if err := repo.UpsertCourseReview(ctx, review); err != nil {
			return err
		}

		res.Review = review
		res.Created = !exists
		res.AverageRating, res.TotalReviews, err = repo.RecountCourseRating(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsWritten.WithLabelValues("course").Inc()
	log.Printf("Student %d reviewed course %d (%d stars)", p.UserID, courseID, in.Rating)
	return res, nil
}

// UpsertInstructorReview rates the instructor for one course. The reviewer
// must be enrolled in that course and the reviewee must be an instructor.
func (s *Service) UpsertInstructorReview(ctx context.Context, p *models.Principal, courseID, instructorID uint, in InstructorReviewInput) (*InstructorReviewResult, error) {
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}

	res := &InstructorReviewResult{}
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		instructor, err := repo.GetUser(ctx, instructorID)
		if err != nil {
			return err
		}
		if instructor.Role != models.RoleInstructor {
			return fmt.Errorf("%w: user %d is not an instructor", errs.ErrNotFound, instructorID)
		}
		if _, err := enrollment(ctx, repo, p, courseID); err != nil {
			return err
		}

		review := &models.InstructorReview{
			InstructorID:         instructorID,
			StudentID:            p.UserID,
			CourseID:             courseID,
			Rating:               in.Rating,
			Comment:              in.Comment,
			ClarityRating:        in.ClarityRating,
			ResponsivenessRating: in.ResponsivenessRating,
		}
		if err := repo.UpsertInstructorReview(ctx, review); err != nil {
			return err
		}
		res.Review = review
		res.InstructorRating, res.TotalReviews, err = repo.RecountInstructorRating(ctx, instructorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsWritten.WithLabelValues("instructor").Inc()
	return res, nil
}

func (s *Service) ListCourseReviews(ctx context.Context, courseID uint) ([]models.ReviewListItem, error) {
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListCourseReviews(ctx, courseID)
}

// ToggleHelpful flips the principal's helpful vote on a course review.
func (s *Service) ToggleHelpful(ctx context.Context, p *models.Principal, reviewID uint) (*HelpfulResult, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}

	res := &HelpfulResult{}
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		if _, err := repo.GetCourseReview(ctx, reviewID); err != nil {
			return err
		}
		added, err := repo.ToggleHelpful(ctx, reviewID, p.UserID)
		if err != nil {
			return err
		}
		res.Action = "removed"
		if added {
			res.Action = "added"
		}
		res.Count, err = repo.CountHelpful(ctx, reviewID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
