package enrollment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/metrics"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

const progressStep = 10

type Service struct {
	repo   *Repository
	policy *access.Policy
	now    func() time.Time
}

func NewService(repo *Repository, policy *access.Policy) *Service {
	return &Service{repo: repo, policy: policy, now: time.Now}
}

// Enroll adds the principal to a published course and recounts the course's
// enrollments in the same transaction.
func (s *Service) Enroll(ctx context.Context, p *models.Principal, courseID uint) (*models.Enrollment, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}

	var enrollment *models.Enrollment
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		course, err := repo.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if course.Status != models.CoursePublished {
			return fmt.Errorf("%w: course is not open for enrollment", errs.ErrNotFound)
		}

		now := s.now()
		enrollment = &models.Enrollment{
			StudentID:    p.UserID,
			CourseID:     courseID,
			Status:       models.EnrollmentActive,
			EnrolledAt:   now,
			LastAccessed: now,
		}
		if err := repo.Create(ctx, enrollment); err != nil {
			return err
		}
		_, err = repo.RecountEnrollments(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Enrollments.WithLabelValues("enroll").Inc()
	log.Printf("Student %d enrolled in course %d", p.UserID, courseID)
	return enrollment, nil
}

// Unenroll removes studentID from the course. Students may remove
// themselves; course managers may remove anyone.
func (s *Service) Unenroll(ctx context.Context, p *models.Principal, courseID, studentID uint) error {
	if !p.Authenticated() {
		return errs.ErrUnauthenticated
	}

	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		course, err := repo.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if p.UserID != studentID {
			if err := s.policy.RequireManage(p, course); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, studentID, courseID); err != nil {
			return err
		}
		_, err = repo.RecountEnrollments(ctx, courseID)
		return err
	})
	if err != nil {
		return err
	}

	metrics.Enrollments.WithLabelValues("unenroll").Inc()
	log.Printf("Student %d unenrolled from course %d", studentID, courseID)
	return nil
}

// UpdateProgress advances the enrollment by a fixed step. Reaching 100 marks
// it completed with a timestamp; a completed enrollment is left unchanged.
func (s *Service) UpdateProgress(ctx context.Context, p *models.Principal, enrollmentID uint) (*models.Enrollment, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}

	var (
		enrollment *models.Enrollment
		completed  bool
	)
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		var err error
		enrollment, err = repo.Get(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if enrollment.StudentID != p.UserID {
			return errs.ErrPermissionDenied
		}
		if enrollment.Status == models.EnrollmentCompleted {
			return nil
		}

		lessons, err := repo.CountLessons(ctx, enrollment.CourseID)
		if err != nil {
			return err
		}
		now := s.now()
		completed = advance(enrollment, lessons, now)
		enrollment.LastAccessed = now
		return repo.Save(ctx, enrollment)
	})
	if err != nil {
		return nil, err
	}

	if completed {
		metrics.Enrollments.WithLabelValues("complete").Inc()
	}
	return enrollment, nil
}

// advance applies one progress step and reports whether it completed the
// enrollment. Progress is 100 exactly when the status is completed.
func advance(e *models.Enrollment, lessons int64, now time.Time) bool {
	if lessons == 0 {
		e.Progress = 0
	} else {
		e.Progress += progressStep
		if e.Progress > 100 {
			e.Progress = 100
		}
	}

	switch {
	case e.Progress >= 100:
		e.Status = models.EnrollmentCompleted
		e.CompletedAt = &now
		return true
	case e.Progress > 0:
		e.Status = models.EnrollmentInProgress
	}
	return false
}

func (s *Service) MyEnrollments(ctx context.Context, p *models.Principal) ([]models.Enrollment, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	return s.repo.ListByStudent(ctx, p.UserID)
}

func (s *Service) CourseStudents(ctx context.Context, p *models.Principal, courseID uint) ([]Student, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(p, course); err != nil {
		return nil, err
	}
	return s.repo.ListStudents(ctx, courseID)
}
