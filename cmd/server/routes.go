package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/access"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/auth"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/config"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/course"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/enrollment"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/metrics"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/middleware"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/quiz"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/review"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/websocket"
)

// newRouter wires repositories, services and handlers onto one router.
// quizCache may be nil.
func newRouter(db *gorm.DB, cfg config.Config, quizCache quiz.Cache, wsHub *websocket.Hub) http.Handler {
	// Initialize repositories
	authRepo := auth.NewRepository(db)
	enrollmentRepo := enrollment.NewRepository(db)
	courseRepo := course.NewRepository(db)
	quizRepo := quiz.NewRepository(db)
	reviewRepo := review.NewRepository(db)

	policy := access.NewPolicy(enrollmentRepo)

	// Initialize services
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.TokenTTL)
	courseService := course.NewService(courseRepo, policy, enrollmentRepo, quizCache)
	enrollmentService := enrollment.NewService(enrollmentRepo, policy)
	catalog := quiz.NewCatalog(quizRepo, policy, quizCache)
	engine := quiz.NewEngine(quizRepo, policy, enrollmentRepo, quizCache, wsHub)
	reviewService := review.NewService(reviewRepo)

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	courseHandler := course.NewHandler(courseService)
	enrollmentHandler := enrollment.NewHandler(enrollmentService)
	quizHandler := quiz.NewHandler(engine, catalog, wsHub)
	reviewHandler := review.NewHandler(reviewService)

	router := mux.NewRouter()
	router.Use(metrics.Instrument)
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Auth routes - no JWT required
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Catalog browsing works for visitors too
	optional := api.NewRoute().Subrouter()
	optional.Use(auth.OptionalJWT(cfg.JWTSecret))
	optional.HandleFunc("/courses", courseHandler.ListCourses).Methods("GET")
	optional.HandleFunc("/courses/{courseID:[0-9]+}", courseHandler.GetCourse).Methods("GET")
	optional.HandleFunc("/courses/{courseID:[0-9]+}/lessons/{lessonID:[0-9]+}", courseHandler.ViewLesson).Methods("GET")
	optional.HandleFunc("/courses/{courseID:[0-9]+}/lessons/{lessonID:[0-9]+}/access", courseHandler.CheckLessonAccess).Methods("GET")
	optional.HandleFunc("/courses/{courseID:[0-9]+}/reviews", reviewHandler.ListCourseReviews).Methods("GET")

	// Everything else - JWT required
	protected := api.NewRoute().Subrouter()
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.HandleFunc("/courses", courseHandler.CreateCourse).Methods("POST")
	protected.HandleFunc("/courses/mine", courseHandler.MyCourses).Methods("GET")
	protected.HandleFunc("/courses/{courseID}", courseHandler.UpdateCourse).Methods("PUT")
	protected.HandleFunc("/courses/{courseID}", courseHandler.DeleteCourse).Methods("DELETE")
	protected.HandleFunc("/courses/{courseID}/status", courseHandler.SetStatus).Methods("POST")
	protected.HandleFunc("/courses/{courseID}/lessons", courseHandler.CreateLesson).Methods("POST")
	protected.HandleFunc("/lessons/{lessonID}", courseHandler.UpdateLesson).Methods("PUT")
	protected.HandleFunc("/lessons/{lessonID}", courseHandler.DeleteLesson).Methods("DELETE")

	protected.HandleFunc("/courses/{courseID}/enroll", enrollmentHandler.Enroll).Methods("POST")
	protected.HandleFunc("/courses/{courseID}/students", enrollmentHandler.CourseStudents).Methods("GET")
	protected.HandleFunc("/courses/{courseID}/students/{studentID}", enrollmentHandler.Unenroll).Methods("DELETE")
	protected.HandleFunc("/enrollments/me", enrollmentHandler.MyEnrollments).Methods("GET")
	protected.HandleFunc("/enrollments/{enrollmentID}/progress", enrollmentHandler.UpdateProgress).Methods("POST")

	protected.HandleFunc("/lessons/{lessonID}/quiz", quizHandler.CreateQuiz).Methods("POST")
	protected.HandleFunc("/quizzes/{quizID}", quizHandler.GetQuiz).Methods("GET")
	protected.HandleFunc("/quizzes/{quizID}", quizHandler.UpdateQuiz).Methods("PUT")
	protected.HandleFunc("/quizzes/{quizID}", quizHandler.DeleteQuiz).Methods("DELETE")
	protected.HandleFunc("/quizzes/{quizID}/questions", quizHandler.AddQuestion).Methods("POST")
	protected.HandleFunc("/quizzes/{quizID}/questions/reorder", quizHandler.ReorderQuestions).Methods("POST")
	protected.HandleFunc("/questions/{questionID}", quizHandler.UpdateQuestion).Methods("PUT")
	protected.HandleFunc("/questions/{questionID}", quizHandler.DeleteQuestion).Methods("DELETE")
	protected.HandleFunc("/quizzes/{quizID}/take", quizHandler.TakeQuiz).Methods("POST")
	protected.HandleFunc("/quizzes/{quizID}/statistics", quizHandler.Statistics).Methods("GET")
	protected.HandleFunc("/quizzes/{quizID}/leaderboard", quizHandler.Leaderboard).Methods("GET")
	protected.HandleFunc("/attempts/me", quizHandler.MyAttempts).Methods("GET")
	protected.HandleFunc("/attempts/{attemptID}/time", quizHandler.TimeRemaining).Methods("GET")
	protected.HandleFunc("/attempts/{attemptID}/submit", quizHandler.Submit).Methods("POST")
	protected.HandleFunc("/attempts/{attemptID}/results", quizHandler.Results).Methods("GET")

	protected.HandleFunc("/courses/{courseID}/reviews", reviewHandler.UpsertCourseReview).Methods("POST")
	protected.HandleFunc("/courses/{courseID}/instructors/{instructorID}/reviews", reviewHandler.UpsertInstructorReview).Methods("POST")
	protected.HandleFunc("/reviews/{reviewID}/helpful", reviewHandler.ToggleHelpful).Methods("POST")

	// WebSocket endpoint
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(auth.JWTMiddleware(cfg.JWTSecret))
	ws.HandleFunc("/quizzes/{quizID}", quizHandler.Monitor).Methods("GET")

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return corsMiddleware.Handler(middleware.RequestLogger(router))
}
