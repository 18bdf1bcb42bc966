package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                     uint           `json:"id" gorm:"primaryKey"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `json:"-" gorm:"index"`
	Username               string         `json:"username" gorm:"uniqueIndex;not null"`
	Email                  string         `json:"email" gorm:"uniqueIndex;not null"`
	Password               string         `json:"-" gorm:"not null"`
	Role                   Role           `json:"role" gorm:"type:varchar(20);not null"`
	InstructorRating       float64        `json:"instructor_rating"`
	TotalInstructorReviews int            `json:"total_instructor_reviews"`
}

// Principal is the authenticated actor of a request. A nil *Principal is an
// anonymous visitor.
type Principal struct {
	UserID uint `json:"user_id"`
	Role   Role `json:"role"`
}

func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != 0
}

func (p *Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}

func (p *Principal) CanAuthor() bool {
	return p.Authenticated() && (p.Role == RoleInstructor || p.Role == RoleAdmin)
}
