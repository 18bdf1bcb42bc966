// Package testutil provides a migrated in-memory database and seed helpers for
// package tests.
package testutil

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/database"
)

var (
	unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)
	seq        int64
)

// NewDB returns a fresh migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("%s_%d", unsafeName.ReplaceAllString(t.Name(), "_"), atomic.AddInt64(&seq, 1))
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Principal(u *models.User) *models.Principal {
	return &models.Principal{UserID: u.ID, Role: u.Role}
}

func CreateCourse(t *testing.T, db *gorm.DB, instructor *models.User, status models.CourseStatus) *models.Course {
	t.Helper()
	n := atomic.AddInt64(&seq, 1)
	c := &models.Course{
		Title:        fmt.Sprintf("Course %d", n),
		Slug:         fmt.Sprintf("course-%d", n),
		InstructorID: instructor.ID,
		Status:       status,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func CreateLesson(t *testing.T, db *gorm.DB, course *models.Course, order int, freePreview bool) *models.Lesson {
	t.Helper()
	l := &models.Lesson{
		CourseID:      course.ID,
		Title:         fmt.Sprintf("Lesson %d", order),
		Order:         order,
		IsFreePreview: freePreview,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

func Enroll(t *testing.T, db *gorm.DB, student *models.User, course *models.Course) *models.Enrollment {
	t.Helper()
	now := time.Now()
	e := &models.Enrollment{
		StudentID:    student.ID,
		CourseID:     course.ID,
		Status:       models.EnrollmentActive,
		EnrolledAt:   now,
		LastAccessed: now,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// CreateQuiz seeds a quiz on lesson with one question per entry of points,
// all with correct answer A unless correct overrides it.
func CreateQuiz(t *testing.T, db *gorm.DB, lesson *models.Lesson, quiz models.Quiz, points []int, correct ...models.Letter) *models.Quiz {
	t.Helper()
	quiz.LessonID = lesson.ID
	if quiz.Title == "" {
		quiz.Title = "Quiz"
	}
	require.NoError(t, db.Create(&quiz).Error)
	for i, p := range points {
		answer := models.LetterA
		if i < len(correct) {
			answer = correct[i]
		}
		q := models.Question{
			QuizID:        quiz.ID,
			Text:          fmt.Sprintf("Question %d", i+1),
			Points:        p,
			OptionA:       "alpha",
			OptionB:       "beta",
			OptionC:       "gamma",
			CorrectAnswer: answer,
			Order:         i + 1,
		}
		require.NoError(t, db.Create(&q).Error)
		quiz.Questions = append(quiz.Questions, q)
	}
	return &quiz
}
