package quiz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/testutil"
)

func question(text, correct string) QuestionInput {
	return QuestionInput{Text: text, OptionA: "yes", OptionB: "no", CorrectAnswer: correct}
}

func TestCreateQuizDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)

	quiz, err := f.catalog.CreateQuiz(ctx, instructor, f.lesson.ID, QuizInput{Title: " Week 1 "})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", quiz.Title)
	assert.Equal(t, 70, quiz.PassingScore)
	assert.True(t, quiz.ShowAnswers)
	assert.False(t, quiz.IsPublished)

	_, err = f.catalog.CreateQuiz(ctx, instructor, f.lesson.ID, QuizInput{Title: "Again"})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = f.catalog.CreateQuiz(ctx, testutil.Principal(f.student), f.lesson.ID, QuizInput{Title: "Mine"})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	zero := 0
	hidden := false
	other := testutil.CreateLesson(t, f.db, f.course, 2, false)
	quiz, err = f.catalog.CreateQuiz(ctx, instructor, other.ID, QuizInput{Title: "Open", PassingScore: &zero, ShowAnswers: &hidden})
	require.NoError(t, err)
	assert.Equal(t, 0, quiz.PassingScore)
	assert.False(t, quiz.ShowAnswers)

	bad := 101
	_, err = f.catalog.CreateQuiz(ctx, instructor, other.ID, QuizInput{Title: "Bad", PassingScore: &bad})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateQuizKeepsOmittedSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)

	hidden := false
	quiz, err := f.catalog.CreateQuiz(ctx, instructor, f.lesson.ID, QuizInput{Title: "Quiz", ShowAnswers: &hidden})
	require.NoError(t, err)

	updated, err := f.catalog.UpdateQuiz(ctx, instructor, quiz.ID, QuizInput{Title: "Renamed", TimeLimit: 15, IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 15, updated.TimeLimit)
	assert.True(t, updated.IsPublished)
	assert.False(t, updated.ShowAnswers)
	assert.Equal(t, 70, updated.PassingScore)
}

func TestAddQuestionValidatesOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)
	quiz, err := f.catalog.CreateQuiz(ctx, instructor, f.lesson.ID, QuizInput{Title: "Quiz"})
	require.NoError(t, err)

	first, err := f.catalog.AddQuestion(ctx, instructor, quiz.ID, question("One?", "b"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 1, first.Points)
	assert.Equal(t, models.LetterB, first.CorrectAnswer)

	second, err := f.catalog.AddQuestion(ctx, instructor, quiz.ID, question("Two?", "A"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)

	_, err = f.catalog.AddQuestion(ctx, instructor, quiz.ID, question("Three?", "C"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.catalog.AddQuestion(ctx, instructor, quiz.ID, question("Four?", "Z"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.catalog.AddQuestion(ctx, instructor, quiz.ID, QuestionInput{Text: "No B", OptionA: "x", CorrectAnswer: "A"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.catalog.AddQuestion(ctx, testutil.Principal(f.student), quiz.ID, question("Five?", "A"))
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestDeleteQuestionRenumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)
	quiz := f.quiz(t, models.Quiz{}, 1, 1, 1, 1)

	require.NoError(t, f.catalog.DeleteQuestion(ctx, instructor, quiz.Questions[1].ID))

	loaded, err := f.catalog.GetQuizForManager(ctx, instructor, quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 3)
	for i, q := range loaded.Questions {
		assert.Equal(t, i+1, q.Order)
	}
	assert.Equal(t, quiz.Questions[2].ID, loaded.Questions[1].ID)
}

func TestReorderQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)
	quiz := f.quiz(t, models.Quiz{}, 1, 1, 1)
	a, b, c := quiz.Questions[0].ID, quiz.Questions[1].ID, quiz.Questions[2].ID

	ordered, err := f.catalog.ReorderQuestions(ctx, instructor, quiz.ID, []uint{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, c, ordered[0].ID)

	loaded, err := f.catalog.GetQuizForManager(ctx, instructor, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c, a, b}, []uint{loaded.Questions[0].ID, loaded.Questions[1].ID, loaded.Questions[2].ID})

	_, err = f.catalog.ReorderQuestions(ctx, instructor, quiz.ID, []uint{a, a, b})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.catalog.ReorderQuestions(ctx, instructor, quiz.ID, []uint{a, b})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)
	quiz := f.quiz(t, models.Quiz{}, 1)

	in := QuestionInput{Text: "Edited", Points: 4, OptionA: "x", OptionB: "y", OptionD: "z", CorrectAnswer: "d"}
	q, err := f.catalog.UpdateQuestion(ctx, instructor, quiz.Questions[0].ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Edited", q.Text)
	assert.Equal(t, 4, q.Points)
	assert.Equal(t, models.LetterD, q.CorrectAnswer)
	assert.Empty(t, q.OptionC)
	assert.Equal(t, 1, q.Order)
}

func TestDeleteQuizWithAttemptsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.Principal(f.instructor)
	quiz := f.quiz(t, models.Quiz{}, 1)
	untouched := testutil.CreateQuiz(t, f.db, testutil.CreateLesson(t, f.db, f.course, 2, false), models.Quiz{}, []int{1})

	_, err := f.engine.StartOrResume(ctx, testutil.Principal(f.student), quiz.ID)
	require.NoError(t, err)

	err = f.catalog.DeleteQuiz(ctx, instructor, quiz.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, f.catalog.DeleteQuiz(ctx, instructor, untouched.ID))
	_, err = f.catalog.GetQuizForManager(ctx, instructor, untouched.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	var questions int64
	require.NoError(t, f.db.Model(&models.Question{}).Where("quiz_id = ?", untouched.ID).Count(&questions).Error)
	assert.Zero(t, questions)
}
