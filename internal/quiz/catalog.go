package quiz

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/httpx"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

const (
	defaultPassingScore = 70
	defaultPoints       = 1
)

// Catalog is the instructor side of quizzes: settings and questions.
type Catalog struct {
	repo   *Repository
	policy *access.Policy
	cache  Cache
}

func NewCatalog(repo *Repository, policy *access.Policy, cache Cache) *Catalog {
	if cache == nil {
		cache = noCache{}
	}
	return &Catalog{repo: repo, policy: policy, cache: cache}
}

type QuizInput struct {
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description"`
	TimeLimit        int    `json:"time_limit" validate:"gte=0"`
	PassingScore     *int   `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	MaxAttempts      int    `json:"max_attempts" validate:"gte=0"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
	ShowAnswers      *bool  `json:"show_answers"`
	IsPublished      bool   `json:"is_published"`
}

type QuestionInput struct {
	Text          string `json:"text" validate:"required"`
	Points        int    `json:"points" validate:"gte=0"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
	Explanation   string `json:"explanation"`
}

// question validates the input and builds the row it describes.
func (in QuestionInput) question() (models.Question, error) {
	if err := httpx.Validate(in); err != nil {
		return models.Question{}, err
	}
	q := models.Question{
		Text:        strings.TrimSpace(in.Text),
		Points:      in.Points,
		OptionA:     in.OptionA,
		OptionB:     in.OptionB,
		OptionC:     in.OptionC,
		OptionD:     in.OptionD,
		Explanation: in.Explanation,
	}
	if q.Points == 0 {
		q.Points = defaultPoints
	}
	correct, err := models.ParseLetter(in.CorrectAnswer)
	if err != nil {
		return models.Question{}, errs.Invalid("correct_answer", err.Error())
	}
	if !q.HasOption(correct) {
		return models.Question{}, errs.Invalid("correct_answer", fmt.Sprintf("option %s is empty", correct))
	}
	q.CorrectAnswer = correct
	return q, nil
}

func (c *Catalog) invalidate(ctx context.Context, quizID uint) {
	if err := c.cache.InvalidateQuiz(ctx, quizID); err != nil {
		log.Printf("Error invalidating quiz %d cache: %v", quizID, err)
	}
}

// managedQuiz loads a quiz and checks the principal manages its course.
func (c *Catalog) managedQuiz(ctx context.Context, p *models.Principal, quizID uint) (*models.Quiz, error) {
	quiz, err := c.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := c.policy.RequireManage(p, quiz.Lesson.Course); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (c *Catalog) CreateQuiz(ctx context.Context, p *models.Principal, lessonID uint, in QuizInput) (*models.Quiz, error) {
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}
	lesson, err := c.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := c.policy.RequireManage(p, lesson.Course); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		LessonID:         lesson.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		TimeLimit:        in.TimeLimit,
		PassingScore:     defaultPassingScore,
		MaxAttempts:      in.MaxAttempts,
		ShuffleQuestions: in.ShuffleQuestions,
		ShowAnswers:      true,
		IsPublished:      in.IsPublished,
	}
	if in.PassingScore != nil {
		quiz.PassingScore = *in.PassingScore
	}
	if in.ShowAnswers != nil {
		quiz.ShowAnswers = *in.ShowAnswers
	}
	if err := c.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// UpdateQuiz replaces every setting. Omitted passing_score and show_answers
// keep their current values.
func (c *Catalog) UpdateQuiz(ctx context.Context, p *models.Principal, quizID uint, in QuizInput) (*models.Quiz, error) {
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}
	quiz, err := c.managedQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"title":             strings.TrimSpace(in.Title),
		"description":       in.Description,
		"time_limit":        in.TimeLimit,
		"max_attempts":      in.MaxAttempts,
		"shuffle_questions": in.ShuffleQuestions,
		"is_published":      in.IsPublished,
	}
	if in.PassingScore != nil {
		fields["passing_score"] = *in.PassingScore
	}
	if in.ShowAnswers != nil {
		fields["show_answers"] = *in.ShowAnswers
	}
	if err := c.repo.UpdateQuiz(ctx, quiz.ID, fields); err != nil {
		return nil, err
	}
	c.invalidate(ctx, quiz.ID)
	return c.repo.GetQuiz(ctx, quiz.ID)
}

// DeleteQuiz refuses once anyone has attempted the quiz; attempts are kept
// forever.
func (c *Catalog) DeleteQuiz(ctx context.Context, p *models.Principal, quizID uint) error {
	quiz, err := c.managedQuiz(ctx, p, quizID)
	if err != nil {
		return err
	}
	err = c.repo.Transaction(ctx, func(repo *Repository) error {
		n, err := repo.CountAllAttempts(ctx, quiz.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: quiz has %d attempts", errs.ErrConflict, n)
		}
		return repo.DeleteQuiz(ctx, quiz.ID)
	})
	if err != nil {
		return err
	}
	c.invalidate(ctx, quiz.ID)
	log.Printf("Deleted quiz %d", quiz.ID)
	return nil
}

func (c *Catalog) GetQuizForManager(ctx context.Context, p *models.Principal, quizID uint) (*models.Quiz, error) {
	return c.managedQuiz(ctx, p, quizID)
}

func (c *Catalog) AddQuestion(ctx context.Context, p *models.Principal, quizID uint, in QuestionInput) (*models.Question, error) {
	q, err := in.question()
	if err != nil {
		return nil, err
	}
	quiz, err := c.managedQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}

	q.QuizID = quiz.ID
	err = c.repo.Transaction(ctx, func(repo *Repository) error {
		n, err := repo.CountQuestions(ctx, quiz.ID)
		if err != nil {
			return err
		}
		q.Order = int(n) + 1
		return repo.CreateQuestion(ctx, &q)
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, quiz.ID)
	return &q, nil
}

// managedQuestion loads a question and the quiz that owns it.
func (c *Catalog) managedQuestion(ctx context.Context, p *models.Principal, questionID uint) (*models.Question, *models.Quiz, error) {
	q, err := c.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	quiz, err := c.managedQuiz(ctx, p, q.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return q, quiz, nil
}

func (c *Catalog) UpdateQuestion(ctx context.Context, p *models.Principal, questionID uint, in QuestionInput) (*models.Question, error) {
	next, err := in.question()
	if err != nil {
		return nil, err
	}
	q, quiz, err := c.managedQuestion(ctx, p, questionID)
	if err != nil {
		return nil, err
	}

	err = c.repo.UpdateQuestion(ctx, q.ID, map[string]interface{}{
		"text":           next.Text,
		"points":         next.Points,
		"option_a":       next.OptionA,
		"option_b":       next.OptionB,
		"option_c":       next.OptionC,
		"option_d":       next.OptionD,
		"correct_answer": next.CorrectAnswer,
		"explanation":    next.Explanation,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, quiz.ID)
	return c.repo.GetQuestion(ctx, q.ID)
}

// DeleteQuestion removes the question and renumbers the rest 1..n.
func (c *Catalog) DeleteQuestion(ctx context.Context, p *models.Principal, questionID uint) error {
	q, quiz, err := c.managedQuestion(ctx, p, questionID)
	if err != nil {
		return err
	}
	err = c.repo.Transaction(ctx, func(repo *Repository) error {
		if err := repo.DeleteQuestion(ctx, q.ID); err != nil {
			return err
		}
		rest, err := repo.Questions(ctx, quiz.ID)
		if err != nil {
			return err
		}
		return renumber(ctx, repo, rest)
	})
	if err != nil {
		return err
	}
	c.invalidate(ctx, quiz.ID)
	return nil
}

// ReorderQuestions sets the order to the position of each id in ids, which
// must list every question of the quiz exactly once.
func (c *Catalog) ReorderQuestions(ctx context.Context, p *models.Principal, quizID uint, ids []uint) ([]models.Question, error) {
	quiz, err := c.managedQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}

	var ordered []models.Question
	err = c.repo.Transaction(ctx, func(repo *Repository) error {
		current, err := repo.Questions(ctx, quiz.ID)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.Question, len(current))
		for _, q := range current {
			byID[q.ID] = q
		}
		if len(ids) != len(current) {
			return errs.Invalid("question_ids", fmt.Sprintf("must list all %d questions", len(current)))
		}
		ordered = make([]models.Question, 0, len(ids))
		for _, id := range ids {
			q, ok := byID[id]
			if !ok {
				return errs.Invalid("question_ids", fmt.Sprintf("question %d is missing or repeated", id))
			}
			delete(byID, id)
			ordered = append(ordered, q)
		}
		return renumber(ctx, repo, ordered)
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, quiz.ID)
	return ordered, nil
}

func renumber(ctx context.Context, repo *Repository, questions []models.Question) error {
	for i := range questions {
		order := i + 1
		if questions[i].Order == order {
			continue
		}
		if err := repo.SetQuestionOrder(ctx, questions[i].ID, order); err != nil {
			return err
		}
		questions[i].Order = order
	}
	return nil
}
