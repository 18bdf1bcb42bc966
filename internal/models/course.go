package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

func (s CourseStatus) Valid() bool {
	switch s {
	case CourseDraft, CoursePublished, CourseArchived:
		return true
	}
	return false
}

// Course carries two derived fields, TotalEnrollments and AverageRating (with
// TotalReviews). They are only ever written by a recount.
type Course struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
	Title            string         `json:"title" gorm:"not null"`
	Slug             string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description      string         `json:"description"`
	InstructorID     uint           `json:"instructor_id" gorm:"index;not null"`
	Status           CourseStatus   `json:"status" gorm:"type:varchar(20);not null"`
	TotalEnrollments int            `json:"total_enrollments"`
	AverageRating    float64        `json:"average_rating"`
	TotalReviews     int            `json:"total_reviews"`
	Lessons          []Lesson       `json:"lessons,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

type Lesson struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time `json:"created_at"`
	CourseID        uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_lesson_course_order"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	VideoURL        string    `json:"video_url"`
	Order           int       `json:"order" gorm:"column:order_index;not null;uniqueIndex:idx_lesson_course_order"`
	IsFreePreview   bool      `json:"is_free_preview"`
	DurationMinutes int       `json:"duration_minutes"`
	Course          *Course   `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

type EnrollmentStatus string

const (
	EnrollmentActive     EnrollmentStatus = "active"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
)

type Enrollment struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	StudentID    uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID     uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course;index"`
	Status       EnrollmentStatus `json:"status" gorm:"type:varchar(20);not null"`
	Progress     int              `json:"progress"`
	EnrolledAt   time.Time        `json:"enrolled_at"`
	CompletedAt  *time.Time       `json:"completed_at"`
	LastAccessed time.Time        `json:"last_accessed"`
	Course       *Course          `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// LessonAccess is one row of a course sidebar.
type LessonAccess struct {
	LessonID      uint   `json:"lesson_id"`
	Title         string `json:"title"`
	Order         int    `json:"order"`
	IsFreePreview bool   `json:"is_free_preview"`
	Accessible    bool   `json:"accessible"`
}

type LessonRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

type LessonView struct {
	Lesson     Lesson         `json:"lesson"`
	Course     Course         `json:"course"`
	Sidebar    []LessonAccess `json:"sidebar"`
	Position   int            `json:"position"`
	Prev       *LessonRef     `json:"prev,omitempty"`
	Next       *LessonRef     `json:"next,omitempty"`
	IsEnrolled bool           `json:"is_enrolled"`
}
