package course

import (
	"context"
	"fmt"
	"log"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

const maxSlugTries = 100

// QuizCache drops cached quizzes, which embed their lesson and course.
type QuizCache interface {
	InvalidateQuiz(ctx context.Context, id uint) error
}

type Service struct {
	repo        *Repository
	policy      *access.Policy
	enrollments access.EnrollmentChecker
	quizzes     QuizCache
}

// NewService builds the course service. quizzes may be nil.
func NewService(repo *Repository, policy *access.Policy, enrollments access.EnrollmentChecker, quizzes QuizCache) *Service {
	return &Service{repo: repo, policy: policy, enrollments: enrollments, quizzes: quizzes}
}

func (s *Service) invalidateQuizzes(ctx context.Context, ids []uint) {
	if s.quizzes == nil {
		return
	}
	for _, id := range ids {
		if err := s.quizzes.InvalidateQuiz(ctx, id); err != nil {
			log.Printf("Error invalidating quiz %d: %v", id, err)
		}
	}
}

type CourseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
}

type CourseDetail struct {
	Course     models.Course         `json:"course"`
	Lessons    []models.LessonAccess `json:"lessons"`
	IsEnrolled bool                  `json:"is_enrolled"`
	CanManage  bool                  `json:"can_manage"`
}

func (s *Service) CreateCourse(ctx context.Context, p *models.Principal, in CourseInput) (*models.Course, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	if !p.CanAuthor() {
		return nil, errs.ErrPermissionDenied
	}

	slug, err := s.uniqueSlug(ctx, Slugify(in.Title))
	if err != nil {
		return nil, err
	}
	c := &models.Course{
		Title:        in.Title,
		Slug:         slug,
		Description:  in.Description,
		InstructorID: p.UserID,
		Status:       models.CourseDraft,
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 1; i <= maxSlugTries; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: could not find a free slug for %q", errs.ErrConflict, base)
}

// manageable loads a course and checks the manage guard.
func (s *Service) manageable(ctx context.Context, p *models.Principal, courseID uint) (*models.Course, error) {
	c, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(p, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCourse(ctx context.Context, p *models.Principal, courseID uint, in CourseInput) (*models.Course, error) {
	if _, err := s.manageable(ctx, p, courseID); err != nil {
		return nil, err
	}
	err := s.repo.UpdateCourse(ctx, courseID, map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetCourse(ctx, courseID)
}

func (s *Service) SetStatus(ctx context.Context, p *models.Principal, courseID uint, status models.CourseStatus) (*models.Course, error) {
	if !status.Valid() {
		return nil, errs.Invalid("status", "must be one of draft, published, archived")
	}
	if _, err := s.manageable(ctx, p, courseID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCourse(ctx, courseID, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}
	log.Printf("Course %d set to %s by user %d", courseID, status, p.UserID)

	quizIDs, err := s.repo.CourseQuizIDs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	s.invalidateQuizzes(ctx, quizIDs)
	return s.repo.GetCourse(ctx, courseID)
}

// DeleteCourse soft-deletes the course. A course whose quizzes have attempts
// is kept, since attempts are permanent.
func (s *Service) DeleteCourse(ctx context.Context, p *models.Principal, courseID uint) error {
	if _, err := s.manageable(ctx, p, courseID); err != nil {
		return err
	}

	var quizIDs []uint
	err := s.repo.Transaction(ctx, func(repo *Repository) error {
		attempts, err := repo.CountCourseAttempts(ctx, courseID)
		if err != nil {
			return err
		}
		if attempts > 0 {
			return fmt.Errorf("%w: the course's quizzes have %d attempts", errs.ErrConflict, attempts)
		}
		if quizIDs, err = repo.CourseQuizIDs(ctx, courseID); err != nil {
			return err
		}
		return repo.DeleteCourse(ctx, courseID)
	})
	if err != nil {
		return err
	}

	log.Printf("Course %d deleted by user %d", courseID, p.UserID)
	s.invalidateQuizzes(ctx, quizIDs)
	return nil
}

// GetCourse hides unpublished courses from everyone but their managers.
func (s *Service) GetCourse(ctx context.Context, p *models.Principal, courseID uint) (*CourseDetail, error) {
	c, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	canManage := s.policy.CanManage(p, c)
	if c.Status != models.CoursePublished && !canManage {
		return nil, errs.ErrNotFound
	}

	lessons, err := s.repo.Lessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	flags, err := s.policy.LessonAccessFlags(ctx, p, c, lessons)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.isEnrolled(ctx, p, c.ID)
	if err != nil {
		return nil, err
	}
	return &CourseDetail{Course: *c, Lessons: flags, IsEnrolled: enrolled, CanManage: canManage}, nil
}

func (s *Service) isEnrolled(ctx context.Context, p *models.Principal, courseID uint) (bool, error) {
	if !p.Authenticated() {
		return false, nil
	}
	return s.enrollments.IsEnrolled(ctx, p.UserID, courseID)
}

func (s *Service) ListPublished(ctx context.Context) ([]models.Course, error) {
	return s.repo.ListPublished(ctx)
}

func (s *Service) MyCourses(ctx context.Context, p *models.Principal) ([]models.Course, error) {
	if !p.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	return s.repo.ListByInstructor(ctx, p.UserID)
}

type LessonInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	Order           int    `json:"order" validate:"gte=0"`
	IsFreePreview   bool   `json:"is_free_preview"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

// CreateLesson appends the lesson when Order is 0.
func (s *Service) CreateLesson(ctx context.Context, p *models.Principal, courseID uint, in LessonInput) (*models.Lesson, error) {
	if _, err := s.manageable(ctx, p, courseID); err != nil {
		return nil, err
	}

	order := in.Order
	if order == 0 {
		next, err := s.repo.NextLessonOrder(ctx, courseID)
		if err != nil {
			return nil, err
		}
		order = next
	}
	l := &models.Lesson{
		CourseID:        courseID,
		Title:           in.Title,
		Description:     in.Description,
		Content:         in.Content,
		VideoURL:        in.VideoURL,
		Order:           order,
		IsFreePreview:   in.IsFreePreview,
		DurationMinutes: in.DurationMinutes,
	}
	if err := s.repo.CreateLesson(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) UpdateLesson(ctx context.Context, p *models.Principal, lessonID uint, in LessonInput) (*models.Lesson, error) {
	l, err := s.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(p, l.Course); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"title":            in.Title,
		"description":      in.Description,
		"content":          in.Content,
		"video_url":        in.VideoURL,
		"is_free_preview":  in.IsFreePreview,
		"duration_minutes": in.DurationMinutes,
	}
	if in.Order > 0 {
		fields["order_index"] = in.Order
	}
	if err := s.repo.UpdateLesson(ctx, lessonID, fields); err != nil {
		return nil, err
	}

	quizIDs, err := s.repo.LessonQuizIDs(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	s.invalidateQuizzes(ctx, quizIDs)
	return s.repo.GetLesson(ctx, lessonID)
}

func (s *Service) DeleteLesson(ctx context.Context, p *models.Principal, lessonID uint) error {
	l, err := s.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.policy.RequireManage(p, l.Course); err != nil {
		return err
	}
	quizIDs, err := s.repo.LessonQuizIDs(ctx, lessonID)
	if err != nil {
		return err
	}
	err = s.repo.Transaction(ctx, func(repo *Repository) error {
		return repo.DeleteLesson(ctx, lessonID)
	})
	if err != nil {
		return err
	}
	s.invalidateQuizzes(ctx, quizIDs)
	return nil
}

// ViewLesson returns a lesson with its course sidebar and neighbours, or
// ErrPermissionDenied when the lesson is locked for p.
func (s *Service) ViewLesson(ctx context.Context, p *models.Principal, courseID, lessonID uint) (*models.LessonView, error) {
	l, err := s.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if l.CourseID != courseID {
		return nil, errs.ErrNotFound
	}
	c := l.Course

	ok, err := s.policy.CanAccessLesson(ctx, p, c, l)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: enroll in this course to access this lesson", errs.ErrPermissionDenied)
	}

	lessons, err := s.repo.Lessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sidebar, err := s.policy.LessonAccessFlags(ctx, p, c, lessons)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.isEnrolled(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	view := &models.LessonView{
		Course:     *c,
		Sidebar:    sidebar,
		IsEnrolled: enrolled,
	}
	l.Course = nil
	view.Lesson = *l
	for i, other := range lessons {
		if other.ID != l.ID {
			continue
		}
		view.Position = i + 1
		if i > 0 {
			view.Prev = ref(lessons[i-1])
		}
		if i < len(lessons)-1 {
			view.Next = ref(lessons[i+1])
		}
		break
	}
	return view, nil
}

// CheckLessonAccess reports whether p may open the lesson without loading
// its content.
func (s *Service) CheckLessonAccess(ctx context.Context, p *models.Principal, courseID, lessonID uint) (bool, error) {
	l, err := s.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return false, err
	}
	if l.CourseID != courseID {
		return false, errs.ErrNotFound
	}
	return s.policy.CanAccessLesson(ctx, p, l.Course, l)
}

func ref(l models.Lesson) *models.LessonRef {
	return &models.LessonRef{ID: l.ID, Title: l.Title, Order: l.Order}
}
