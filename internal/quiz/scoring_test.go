package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

func twoQuestions() []models.Question {
	return []models.Question{
		{ID: 1, Points: 2, OptionA: "a", OptionB: "b", CorrectAnswer: models.LetterA},
		{ID: 2, Points: 3, OptionA: "a", OptionB: "b", CorrectAnswer: models.LetterB},
	}
}

func TestScoreAnswers(t *testing.T) {
	tests := []struct {
		name       string
		answers    models.Answers
		earned     int
		percentage float64
		passed     bool
	}{
		{"all correct", models.Answers{1: "A", 2: "B"}, 5, 100, true},
		{"only the heavier one", models.Answers{1: "B", 2: "B"}, 3, 60, true},
		{"none correct", models.Answers{1: "B", 2: "A"}, 0, 0, false},
		{"lower case matches", models.Answers{1: "a", 2: "b"}, 5, 100, true},
		{"unanswered", models.Answers{}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreAnswers(twoQuestions(), tt.answers, 60)
			assert.Equal(t, 5, s.Total)
			assert.Equal(t, tt.earned, s.Earned)
			assert.InDelta(t, tt.percentage, s.Percentage, 0.001)
			assert.Equal(t, tt.passed, s.Passed)
		})
	}
}

func TestScoreAnswersWithoutQuestions(t *testing.T) {
	s := ScoreAnswers(nil, models.Answers{1: "A"}, 0)
	assert.Equal(t, Score{}, s)
}

func TestMissingAndKnownAnswers(t *testing.T) {
	questions := twoQuestions()
	answers := models.Answers{2: "B", 99: "A"}

	known := KnownAnswers(questions, answers)
	assert.Equal(t, models.Answers{2: "B"}, known)
	assert.Equal(t, []uint{1}, MissingAnswers(questions, known))
}

func TestParseAnswers(t *testing.T) {
	answers, err := ParseAnswers(map[string]string{"4": "c", "7": " D ", "9": ""})
	require.NoError(t, err)
	assert.Equal(t, models.Answers{4: models.LetterC, 7: models.LetterD}, answers)

	_, err = ParseAnswers(map[string]string{"x": "A"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = ParseAnswers(map[string]string{"3": "E"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestComputeStatistics(t *testing.T) {
	questions := twoQuestions()
	attempts := []models.QuizAttempt{
		{Percentage: 100, Passed: true, Answers: datatypes.NewJSONType(models.Answers{1: "A", 2: "B"})},
		{Percentage: 40, Passed: false, Answers: datatypes.NewJSONType(models.Answers{1: "A"})},
		{Percentage: 60, Passed: true, Answers: datatypes.NewJSONType(models.Answers{1: "C", 2: "B"})},
	}

	stats := ComputeStatistics(7, questions, attempts)
	assert.Equal(t, uint(7), stats.QuizID)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.InDelta(t, 200.0/3, stats.AvgScore, 0.001)
	assert.Equal(t, 100.0, stats.HighScore)
	assert.Equal(t, 40.0, stats.LowScore)
	assert.Equal(t, 2, stats.PassCount)
	assert.Equal(t, 1, stats.FailCount)

	require.Len(t, stats.Questions, 2)
	assert.Equal(t, 3, stats.Questions[0].TotalResponses)
	assert.Equal(t, 2, stats.Questions[0].CorrectCount)
	assert.Equal(t, 2, stats.Questions[1].TotalResponses)
	assert.Equal(t, 2, stats.Questions[1].CorrectCount)
	assert.Equal(t, 100.0, stats.Questions[1].Percentage)
}

func TestComputeStatisticsWithoutAttempts(t *testing.T) {
	stats := ComputeStatistics(1, twoQuestions(), nil)
	assert.Zero(t, stats.AvgScore)
	assert.Zero(t, stats.HighScore)
	assert.Zero(t, stats.LowScore)
	assert.Zero(t, stats.Questions[0].Percentage)
}
