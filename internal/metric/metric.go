package metric

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelMetric "go.opentelemetry.io/otel/metric"
)

var (
	CartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wintercollection",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by name and outcome.",
		},
		[]string{"operation", "status"},
	)
	CartVersionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wintercollection",
			Subsystem: "cart",
			Name:      "version_conflicts_total",
			Help:      "Conditional cart writes rejected because another writer committed first.",
		},
	)
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wintercollection",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of http requests by route template, method and status code.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)

// cartOperationCounter mirrors CartOperations on the otel meter provider so the
// count reaches the collector when otel is enabled. It is a no-op otherwise.
var cartOperationCounter, _ = otel.Meter("github.com/Alturino/wintercollection/internal/metric").
	Int64Counter(
		"cart.operations",
		otelMetric.WithDescription("Cart operations by name and outcome."),
		otelMetric.WithUnit("{operation}"),
	)

func RecordCartOperation(c context.Context, operation string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	CartOperations.WithLabelValues(operation, status).Inc()
	if cartOperationCounter != nil {
		cartOperationCounter.Add(
			c,
			1,
			otelMetric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("status", status),
			),
		)
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware observes request durations labelled by the matched mux route template.
// Requests without a route share the "unmatched" label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		HttpRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).
			Observe(time.Since(start).Seconds())
	})
}
