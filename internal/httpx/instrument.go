package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// instruments is per router so tests can build several without clashing
// on the default registry.
type instruments struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
	records  prometheus.Gauge
}

func newInstruments() *instruments {
	in := &instruments{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediaplan_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediaplan_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediaplan_uploads_total",
			Help: "Dataset loads by outcome (ok or the rejection kind).",
		}, []string{"outcome"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediaplan_dataset_records",
			Help: "Records in the current dataset.",
		}),
	}
	in.reg.MustRegister(
		in.requests, in.latency, in.uploads, in.records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return in
}

func (in *instruments) handler() http.Handler {
	return promhttp.HandlerFor(in.reg, promhttp.HandlerOpts{Registry: in.reg})
}

// middleware labels by chi route pattern, not raw path, to keep cardinality bounded.
func (in *instruments) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		in.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		in.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
