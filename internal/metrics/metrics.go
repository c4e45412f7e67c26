// Package metrics exposes playback counters to prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "soundwave"

// Recorder counts playback events. It satisfies playback.Metrics.
type Recorder struct {
	registry      *prometheus.Registry
	tracksStarted *prometheus.CounterVec
	playFailures  prometheus.Counter
	persistErrors *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry, which also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tracksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_started_total",
			Help:      "Tracks loaded for playback, by content type.",
		}, []string{"content_type"}),
		playFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "play_failures_total",
			Help:      "Play requests rejected by the media element.",
		}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed calls to the persistence collaborator, by operation.",
		}, []string{"op"}),
	}
	r.registry.MustRegister(
		r.tracksStarted,
		r.playFailures,
		r.persistErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) TrackStarted(contentType string) {
	r.tracksStarted.WithLabelValues(contentType).Inc()
}

func (r *Recorder) PlayFailed() {
	r.playFailures.Inc()
}

func (r *Recorder) PersistFailed(op string) {
	r.persistErrors.WithLabelValues(op).Inc()
}

// Handler serves the recorder's metrics in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
