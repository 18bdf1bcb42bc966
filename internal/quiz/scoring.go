package quiz

import (
	"fmt"
	"strconv"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type Score struct {
	Earned     int
	Total      int
	Percentage float64
	Passed     bool
}

// ScoreAnswers sums points over every question and awards a question's
// points when its answer matches. A quiz without points scores 0 and fails.
func ScoreAnswers(questions []models.Question, answers models.Answers, passingScore int) Score {
	var s Score
	for _, q := range questions {
		s.Total += q.Points
		if q.IsCorrect(answers[q.ID]) {
			s.Earned += q.Points
		}
	}
	if s.Total > 0 {
		s.Percentage = float64(s.Earned) / float64(s.Total) * 100
		s.Passed = s.Percentage >= float64(passingScore)
	}
	return s
}

// MissingAnswers lists the questions, in quiz order, that have no answer.
func MissingAnswers(questions []models.Question, answers models.Answers) []uint {
	var missing []uint
	for _, q := range questions {
		if answers[q.ID] == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// KnownAnswers drops answers to questions that are not part of the quiz.
func KnownAnswers(questions []models.Question, answers models.Answers) models.Answers {
	out := make(models.Answers, len(questions))
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a != "" {
			out[q.ID] = a
		}
	}
	return out
}

// ParseAnswers converts submitted {"<question id>": "<letter>"} pairs.
// Blank letters count as unanswered.
func ParseAnswers(raw map[string]string) (models.Answers, error) {
	answers := make(models.Answers, len(raw))
	for key, value := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			return nil, errs.Invalid("answers", fmt.Sprintf("invalid question id %q", key))
		}
		if value == "" {
			continue
		}
		letter, err := models.ParseLetter(value)
		if err != nil {
			return nil, errs.Invalid("answers", err.Error())
		}
		answers[uint(id)] = letter
	}
	return answers, nil
}
