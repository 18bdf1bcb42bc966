package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Letter is a multiple-choice option label.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
)

// ParseLetter accepts a single option letter in either case.
func ParseLetter(s string) (Letter, error) {
	l := Letter(strings.ToUpper(strings.TrimSpace(s)))
	switch l {
	case LetterA, LetterB, LetterC, LetterD:
		return l, nil
	}
	return "", fmt.Errorf("invalid option %q: must be one of A, B, C, D", s)
}

// Answers maps a question id to the chosen option.
type Answers map[uint]Letter

type Quiz struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LessonID         uint       `json:"lesson_id" gorm:"uniqueIndex;not null"`
	Title            string     `json:"title" gorm:"not null"`
	Description      string     `json:"description"`
	TimeLimit        int        `json:"time_limit"` // minutes, 0 = unlimited
	PassingScore     int        `json:"passing_score"`
	MaxAttempts      int        `json:"max_attempts"` // 0 = unlimited
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShowAnswers      bool       `json:"show_answers"`
	IsPublished      bool       `json:"is_published"`
	Lesson           *Lesson    `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
	Questions        []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (q *Quiz) TimeLimitDuration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Minute
}

// CourseID is only meaningful when Lesson has been loaded.
func (q *Quiz) CourseID() uint {
	if q.Lesson == nil {
		return 0
	}
	return q.Lesson.CourseID
}

type Question struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	QuizID        uint      `json:"quiz_id" gorm:"index;not null"`
	Text          string    `json:"text" gorm:"not null"`
	Points        int       `json:"points" gorm:"not null"`
	OptionA       string    `json:"option_a" gorm:"not null"`
	OptionB       string    `json:"option_b" gorm:"not null"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer Letter    `json:"correct_answer" gorm:"type:varchar(1);not null"`
	Explanation   string    `json:"explanation"`
	Order         int       `json:"order" gorm:"column:order_index;not null"`
}

type Option struct {
	Letter Letter `json:"letter"`
	Text   string `json:"text"`
}

func (q Question) Options() []Option {
	options := make([]Option, 0, 4)
	for _, o := range []Option{
		{LetterA, q.OptionA},
		{LetterB, q.OptionB},
		{LetterC, q.OptionC},
		{LetterD, q.OptionD},
	} {
		if o.Text != "" {
			options = append(options, o)
		}
	}
	return options
}

// HasOption reports whether the letter labels a non-empty option.
func (q Question) HasOption(l Letter) bool {
	for _, o := range q.Options() {
		if o.Letter == l {
			return true
		}
	}
	return false
}

func (q Question) IsCorrect(answer Letter) bool {
	return answer != "" && strings.EqualFold(string(answer), string(q.CorrectAnswer))
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// QuizAttempt rows are never deleted; attempt numbers per (student, quiz)
// run 1, 2, 3, ... and the triple is unique.
type QuizAttempt struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	StudentID     uint                        `json:"student_id" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number"`
	QuizID        uint                        `json:"quiz_id" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number;index"`
	AttemptNumber int                         `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number"`
	Status        AttemptStatus               `json:"status" gorm:"type:varchar(20);not null;index"`
	Score         float64                     `json:"score"`
	Percentage    float64                     `json:"percentage"`
	Passed        bool                        `json:"passed"`
	Answers       datatypes.JSONType[Answers] `json:"answers"`
	StartedAt     time.Time                   `json:"started_at"`
	CompletedAt   *time.Time                  `json:"completed_at"`
	TimeTaken     int                         `json:"time_taken"` // seconds
	Quiz          *Quiz                       `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
}

func (a *QuizAttempt) InProgress() bool {
	return a.Status == AttemptInProgress
}

// Deadline returns the instant the attempt expires, or false when the quiz has
// no time limit.
func (a *QuizAttempt) Deadline(quiz *Quiz) (time.Time, bool) {
	if quiz.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return a.StartedAt.Add(quiz.TimeLimitDuration()), true
}
