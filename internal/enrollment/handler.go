package enrollment

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

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	e, err := h.service.Enroll(r.Context(), auth.PrincipalFromContext(r.Context()), courseID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	studentID, err := httpx.PathUint(r, "studentID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if err := h.service.Unenroll(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, studentID); err != nil {
		errs.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "enrollmentID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	e, err := h.service.UpdateProgress(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) MyEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.MyEnrollments(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CourseStudents(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	list, err := h.service.CourseStudents(r.Context(), auth.PrincipalFromContext(r.Context()), courseID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
