package models

import "time"

type QuestionDTO struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text"`
	Points        int      `json:"points"`
	Order         int      `json:"order"`
	Options       []Option `json:"options"`
	CorrectAnswer Letter   `json:"correct_answer,omitempty"` // Only for course managers
	Explanation   string   `json:"explanation,omitempty"`
}

func (q Question) ToDTO(reveal bool) QuestionDTO {
	dto := QuestionDTO{
		ID:      q.ID,
		Text:    q.Text,
		Points:  q.Points,
		Order:   q.Order,
		Options: q.Options(),
	}
	if reveal {
		dto.CorrectAnswer = q.CorrectAnswer
		dto.Explanation = q.Explanation
	}
	return dto
}

// AttemptView is what a student sees while taking a quiz. Questions are in
// presentation order; TimeRemaining is nil for untimed quizzes.
type AttemptView struct {
	Attempt       QuizAttempt   `json:"attempt"`
	Quiz          QuizSummary   `json:"quiz"`
	Questions     []QuestionDTO `json:"questions"`
	TimeRemaining *int          `json:"time_remaining"`
	Resumed       bool          `json:"resumed"`
}

type QuizSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	TimeLimit    int    `json:"time_limit"`
	PassingScore int    `json:"passing_score"`
	MaxAttempts  int    `json:"max_attempts"`
}

func (q *Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:           q.ID,
		Title:        q.Title,
		TimeLimit:    q.TimeLimit,
		PassingScore: q.PassingScore,
		MaxAttempts:  q.MaxAttempts,
	}
}

type QuestionResult struct {
	QuestionID    uint   `json:"question_id"`
	Text          string `json:"text"`
	UserAnswer    Letter `json:"user_answer"`
	CorrectAnswer Letter `json:"correct_answer,omitempty"`
	IsCorrect     bool   `json:"is_correct"`
	PointsAwarded int    `json:"points_awarded"`
	Points        int    `json:"points"`
	Explanation   string `json:"explanation,omitempty"`
}

type AttemptResults struct {
	Attempt   QuizAttempt      `json:"attempt"`
	Quiz      QuizSummary      `json:"quiz"`
	Questions []QuestionResult `json:"questions"`
}

type QuestionStatistic struct {
	QuestionID     uint    `json:"question_id"`
	Text           string  `json:"text"`
	CorrectCount   int     `json:"correct_count"`
	TotalResponses int     `json:"total_responses"`
	Percentage     float64 `json:"percentage"`
}

type QuizStatistics struct {
	QuizID        uint                `json:"quiz_id"`
	TotalAttempts int                 `json:"total_attempts"`
	AvgScore      float64             `json:"avg_score"`
	HighScore     float64             `json:"high_score"`
	LowScore      float64             `json:"low_score"`
	PassCount     int                 `json:"pass_count"`
	FailCount     int                 `json:"fail_count"`
	Questions     []QuestionStatistic `json:"questions"`
}

type LeaderboardEntry struct {
	StudentID uint    `json:"student_id"`
	Username  string  `json:"username"`
	Score     float64 `json:"score"`
}

// AttemptEvent is pushed to the quiz room when an attempt changes state.
type AttemptEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	StudentID     uint      `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	Status        string    `json:"status"`
	Percentage    float64   `json:"percentage"`
	Passed        bool      `json:"passed"`
	At            time.Time `json:"at"`
}
