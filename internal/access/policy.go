// Package access decides who may view lessons and who may manage a course.
// CanManageCourse is the only guard for instructor-side mutations; services
// call RequireManage instead of re-deriving ownership checks.
package access

import (
	"context"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

// EnrollmentChecker answers "is this student enrolled in this course" with a
// single indexed lookup.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error)
}

type Policy struct {
	enrollments EnrollmentChecker
}

func NewPolicy(enrollments EnrollmentChecker) *Policy {
	return &Policy{enrollments: enrollments}
}

// CanManageCourse is true for the course's owning instructor and for admins.
func CanManageCourse(p *models.Principal, course *models.Course) bool {
	if !p.Authenticated() || course == nil {
		return false
	}
	return p.IsAdmin() || course.InstructorID == p.UserID
}

func (pol *Policy) CanManage(p *models.Principal, course *models.Course) bool {
	return CanManageCourse(p, course)
}

func (pol *Policy) RequireManage(p *models.Principal, course *models.Course) error {
	if !p.Authenticated() {
		return errs.ErrUnauthenticated
	}
	if !CanManageCourse(p, course) {
		return errs.ErrPermissionDenied
	}
	return nil
}

// CanAccessLesson applies, in order: free preview, authentication, course
// ownership, admin role, enrollment. It has no side effects.
func (pol *Policy) CanAccessLesson(ctx context.Context, p *models.Principal, course *models.Course, lesson *models.Lesson) (bool, error) {
	return pol.canAccess(p, course, lesson, func() (bool, error) {
		return pol.enrollments.IsEnrolled(ctx, p.UserID, course.ID)
	})
}

func (pol *Policy) canAccess(p *models.Principal, course *models.Course, lesson *models.Lesson, enrolled func() (bool, error)) (bool, error) {
	if lesson.IsFreePreview {
		return true, nil
	}
	if !p.Authenticated() {
		return false, nil
	}
	if course.InstructorID == p.UserID {
		return true, nil
	}
	if p.IsAdmin() {
		return true, nil
	}
	return enrolled()
}

// LessonAccessFlags computes the sidebar lock state for every lesson of a
// course. The enrollment lookup runs at most once for the whole list.
func (pol *Policy) LessonAccessFlags(ctx context.Context, p *models.Principal, course *models.Course, lessons []models.Lesson) ([]models.LessonAccess, error) {
	var (
		looked   bool
		enrolled bool
	)
	lookup := func() (bool, error) {
		if !looked {
			ok, err := pol.enrollments.IsEnrolled(ctx, p.UserID, course.ID)
			if err != nil {
				return false, err
			}
			looked, enrolled = true, ok
		}
		return enrolled, nil
	}

	flags := make([]models.LessonAccess, 0, len(lessons))
	for i := range lessons {
		l := &lessons[i]
		ok, err := pol.canAccess(p, course, l, lookup)
		if err != nil {
			return nil, err
		}
		flags = append(flags, models.LessonAccess{
			LessonID:      l.ID,
			Title:         l.Title,
			Order:         l.Order,
			IsFreePreview: l.IsFreePreview,
			Accessible:    ok,
		})
	}
	return flags, nil
}
