package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	PlacementSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "placement_sessions_active",
			Help: "Number of placement sessions currently in flight",
		},
	)

	PlacementPhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_phase_transitions_total",
			Help: "Phase transitions taken, labelled by branch name",
		},
		[]string{"branch"},
	)

	PlacementExpirations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "placement_clock_expirations_total",
			Help: "Phase completions forced by clock expiry",
		},
	)

	PlacementCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_completed_total",
			Help: "Terminal placement results, labelled by level",
		},
		[]string{"level"},
	)

	MasteryQuizzes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mastery_quizzes_total",
			Help: "Mastery validation quizzes, labelled by outcome",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PlacementSessionsActive)
	prometheus.MustRegister(PlacementPhaseTransitions)
	prometheus.MustRegister(PlacementExpirations)
	prometheus.MustRegister(PlacementCompleted)
	prometheus.MustRegister(MasteryQuizzes)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
