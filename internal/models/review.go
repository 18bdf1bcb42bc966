package models

import "time"

type CourseReview struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	CourseID         uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_course_review_student"`
	StudentID        uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_course_review_student"`
	Rating           int       `json:"rating" gorm:"not null"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	WouldRecommend   bool      `json:"would_recommend"`
	DifficultyRating *int      `json:"difficulty_rating"`
	IsVerified       bool      `json:"is_verified"`
	Student          *User     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

type InstructorReview struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	InstructorID         uint      `json:"instructor_id" gorm:"not null;uniqueIndex:idx_instructor_review_triple;index"`
	StudentID            uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_instructor_review_triple"`
	CourseID             uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_instructor_review_triple"`
	Rating               int       `json:"rating" gorm:"not null"`
	Comment              string    `json:"comment"`
	ClarityRating        *int      `json:"clarity_rating"`
	ResponsivenessRating *int      `json:"responsiveness_rating"`
}

type ReviewHelpful struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	ReviewID  uint      `json:"review_id" gorm:"not null;uniqueIndex:idx_review_helpful_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_review_helpful_user"`
}

func (ReviewHelpful) TableName() string {
	return "review_helpful"
}

type ReviewListItem struct {
	CourseReview
	StudentName  string `json:"student_name"`
	HelpfulCount int64  `json:"helpful_count"`
}
