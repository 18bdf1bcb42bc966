package course

import (
	"net/http"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/auth"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/httpx"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListPublished(r.Context())
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, courses)
}

func (h *Handler) MyCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.MyCourses(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, courses)
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in CourseInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	c, err := h.service.CreateCourse(r.Context(), auth.PrincipalFromContext(r.Context()), in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	detail, err := h.service.GetCourse(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in CourseInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	c, err := h.service.UpdateCourse(r.Context(), auth.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var req StatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		errs.Write(w, err)
		return
	}

	c, err := h.service.SetStatus(r.Context(), auth.PrincipalFromContext(r.Context()), id, models.CourseStatus(req.Status))
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in LessonInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	l, err := h.service.CreateLesson(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, l)
}

func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := httpx.PathUint(r, "lessonID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in LessonInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	l, err := h.service.UpdateLesson(r.Context(), auth.PrincipalFromContext(r.Context()), lessonID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if err := h.service.DeleteCourse(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		errs.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := httpx.PathUint(r, "lessonID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if err := h.service.DeleteLesson(r.Context(), auth.PrincipalFromContext(r.Context()), lessonID); err != nil {
		errs.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ViewLesson(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	lessonID, err := httpx.PathUint(r, "lessonID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	view, err := h.service.ViewLesson(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, lessonID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) CheckLessonAccess(w http.ResponseWriter, r *http.Request) {
	courseID, err := httpx.PathUint(r, "courseID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	lessonID, err := httpx.PathUint(r, "lessonID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	allowed, err := h.service.CheckLessonAccess(r.Context(), auth.PrincipalFromContext(r.Context()), courseID, lessonID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}
