package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
)

type createRequest struct {
	Title  string `json:"title" validate:"required"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

func TestDecodeReportsJSONFieldNames(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating": 9}`))
	var req createRequest
	err := Decode(r, &req)

	var verr *errs.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["title"])
	assert.Equal(t, "must be at most 5", verr.Fields["rating"])
}

func TestDecodeRejectsMalformedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var req createRequest
	assert.ErrorIs(t, Decode(r, &req), errs.ErrValidation)
}

func TestDecodeAcceptsValidBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Go","rating":4}`))
	var req createRequest
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, "Go", req.Title)
}

func TestPathUint(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"quizID": "42"})
	id, err := PathUint(r, "quizID")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"quizID": "abc"})
	_, err = PathUint(r, "quizID")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
