package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	AttemptsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lms_quiz_attempts_started_total",
			Help: "Total number of quiz attempts created",
		},
	)

	// reason: submitted/expired
	AttemptsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_quiz_attempts_completed_total",
			Help: "Total number of quiz attempts completed",
		},
		[]string{"reason"},
	)

	AttemptPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lms_quiz_attempt_percentage",
			Help:    "Distribution of completed attempt percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// action: enroll/unenroll/complete
	Enrollments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_enrollments_total",
			Help: "Total number of enrollment changes",
		},
		[]string{"action"},
	)

	// kind: course/instructor
	ReviewsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_reviews_written_total",
			Help: "Total number of reviews created or updated",
		},
		[]string{"kind"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// Instrument is a mux middleware labelling requests by route template so ids
// do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
