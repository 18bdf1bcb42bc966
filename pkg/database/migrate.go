package database

import (
	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
		&models.CourseReview{},
		&models.InstructorReview{},
		&models.ReviewHelpful{},
	)
}
