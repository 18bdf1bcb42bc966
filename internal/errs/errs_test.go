package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load quiz: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotEnrolled, http.StatusForbidden},
		{ErrQuizUnpublished, http.StatusForbidden},
		{ErrMaxAttemptsReached, http.StatusConflict},
		{ErrAlreadyCompleted, http.StatusConflict},
		{&IncompleteAnswersError{Missing: []uint{3}}, http.StatusUnprocessableEntity},
		{Invalid("title", "required"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Status(c.err), c.err.Error())
	}
}

func TestIncompleteAnswersMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("submit: %w", &IncompleteAnswersError{Missing: []uint{4, 9}})
	assert.True(t, errors.Is(err, ErrIncompleteAnswers))
	assert.Contains(t, err.Error(), "4, 9")
}

func TestWriteIncludesMissingQuestions(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &IncompleteAnswersError{Missing: []uint{7, 8}})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "incomplete_answers", body["code"])
	assert.Equal(t, []interface{}{7.0, 8.0}, body["missing_questions"])
}

func TestWriteHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
