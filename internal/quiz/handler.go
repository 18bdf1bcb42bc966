package quiz

import (
	"net/http"
	"strconv"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/auth"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/errs"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/httpx"
)

// RoomServer upgrades a request into a websocket subscribed to one room.
type RoomServer interface {
	ServeRoom(w http.ResponseWriter, r *http.Request, room string)
}

type Handler struct {
	engine  *Engine
	catalog *Catalog
	rooms   RoomServer
}

func NewHandler(engine *Engine, catalog *Catalog, rooms RoomServer) *Handler {
	return &Handler{engine: engine, catalog: catalog, rooms: rooms}
}

type SubmitRequest struct {
	Answers map[string]string `json:"answers"`
}

type ReorderRequest struct {
	QuestionIDs []uint `json:"question_ids" validate:"required,min=1"`
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	lessonID, err := httpx.PathUint(r, "lessonID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in QuizInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	quiz, err := h.catalog.CreateQuiz(r.Context(), auth.PrincipalFromContext(r.Context()), lessonID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	quiz, err := h.catalog.GetQuizForManager(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quiz)
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in QuizInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	quiz, err := h.catalog.UpdateQuiz(r.Context(), auth.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quiz)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if err := h.catalog.DeleteQuiz(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		errs.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in QuestionInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	q, err := h.catalog.AddQuestion(r.Context(), auth.PrincipalFromContext(r.Context()), quizID, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, q)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "questionID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var in QuestionInput
	if err := httpx.Decode(r, &in); err != nil {
		errs.Write(w, err)
		return
	}

	q, err := h.catalog.UpdateQuestion(r.Context(), auth.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "questionID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if err := h.catalog.DeleteQuestion(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		errs.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var req ReorderRequest
	if err := httpx.Decode(r, &req); err != nil {
		errs.Write(w, err)
		return
	}

	questions, err := h.catalog.ReorderQuestions(r.Context(), auth.PrincipalFromContext(r.Context()), quizID, req.QuestionIDs)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, questions)
}

func (h *Handler) TakeQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	view, err := h.engine.StartOrResume(r.Context(), auth.PrincipalFromContext(r.Context()), quizID)
	if err != nil {
		errs.Write(w, err)
		return
	}
	status := http.StatusCreated
	if view.Resumed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, view)
}

func (h *Handler) TimeRemaining(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "attemptID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	left, err := h.engine.TimeRemaining(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]*int{"time_remaining": left})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "attemptID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	var req SubmitRequest
	if err := httpx.Decode(r, &req); err != nil {
		errs.Write(w, err)
		return
	}
	answers, err := ParseAnswers(req.Answers)
	if err != nil {
		errs.Write(w, err)
		return
	}

	results, err := h.engine.Submit(r.Context(), auth.PrincipalFromContext(r.Context()), id, answers)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, results)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "attemptID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	results, err := h.engine.Results(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, results)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	stats, err := h.engine.Statistics(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.engine.MyAttempts(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, attempts)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.engine.Leaderboard(r.Context(), auth.PrincipalFromContext(r.Context()), id, limit)
	if err != nil {
		errs.Write(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

// Monitor streams a quiz's attempt events to its course managers.
func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUint(r, "quizID")
	if err != nil {
		errs.Write(w, err)
		return
	}

	if _, err := h.catalog.GetQuizForManager(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		errs.Write(w, err)
		return
	}
	h.rooms.ServeRoom(w, r, Room(id))
}
