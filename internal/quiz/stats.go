package quiz

import "github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"

// ComputeStatistics summarises completed attempts. Per-question accuracy
// only counts attempts that answered the question.
func ComputeStatistics(quizID uint, questions []models.Question, attempts []models.QuizAttempt) models.QuizStatistics {
	stats := models.QuizStatistics{
		QuizID:        quizID,
		TotalAttempts: len(attempts),
		Questions:     make([]models.QuestionStatistic, 0, len(questions)),
	}

	var sum float64
	for i, a := range attempts {
		sum += a.Percentage
		if i == 0 || a.Percentage > stats.HighScore {
			stats.HighScore = a.Percentage
		}
		if i == 0 || a.Percentage < stats.LowScore {
			stats.LowScore = a.Percentage
		}
		if a.Passed {
			stats.PassCount++
		} else {
			stats.FailCount++
		}
	}
	if len(attempts) > 0 {
		stats.AvgScore = sum / float64(len(attempts))
	}

	for _, q := range questions {
		qs := models.QuestionStatistic{QuestionID: q.ID, Text: q.Text}
		for _, a := range attempts {
			answer := a.Answers.Data()[q.ID]
			if answer == "" {
				continue
			}
			qs.TotalResponses++
			if q.IsCorrect(answer) {
				qs.CorrectCount++
			}
		}
		if qs.TotalResponses > 0 {
			qs.Percentage = float64(qs.CorrectCount) / float64(qs.TotalResponses) * 100
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats
}
