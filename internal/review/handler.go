package review

import (
	"net/http"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/auth"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) UpsertCourseReview(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in CourseReviewInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	res, err := h.service.UpsertCourseReview(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, res)
}

func (h *Handler) UpsertInstructorReview(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	instructorID, err := httpx.PathUint(r, "instructorID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in InstructorReviewInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	res, err := h.service.UpsertInstructorReview(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, instructorID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ListCourseReviews(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	reviews, err := h.service.ListCourseReviews(r.Context(), courseID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) ToggleHelpful(w http.ResponseWriter, r *http.Request) {
	reviewID, err := httpx.PathUint(r, "reviewID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	res, err := h.service.ToggleHelpful(r.Context(), auth.PrincipalFromContext(r.Context()), reviewID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
