package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PerfumeBot/model"
	"PerfumeBot/quiz"
)

// Collector records survey activity as Prometheus metrics.
type Collector struct {
	sessions        prometheus.Counter
	transitions     *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	recommendations prometheus.Histogram
	purchases       *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perfumebot_sessions_started_total",
			Help: "Surveys started, including restarts via /start.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perfumebot_transitions_total",
			Help: "Accepted conversation events by phase change.",
		}, []string{"event", "from", "to"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perfumebot_rejected_events_total",
			Help: "Events refused without a state change.",
		}, []string{"event", "reason"}),
		recommendations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "perfumebot_recommendations",
			Help:    "Number of items recommended per completed survey.",
			Buckets: []float64{0, 1, 2, 3},
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perfumebot_purchase_intents_total",
			Help: "Purchase buttons pressed by item.",
		}, []string{"item"}),
	}
	reg.MustRegister(c.sessions, c.transitions, c.rejected, c.recommendations, c.purchases)
	return c
}

func (c *Collector) SessionStarted() {
	c.sessions.Inc()
}

func (c *Collector) Transition(event quiz.EventKind, from, to model.Phase) {
	c.transitions.WithLabelValues(event.String(), from.String(), to.String()).Inc()
}

func (c *Collector) Rejected(event quiz.EventKind, reason error) {
	c.rejected.WithLabelValues(event.String(), reasonLabel(reason)).Inc()
}

func (c *Collector) Recommended(count int) {
	c.recommendations.Observe(float64(count))
}

func (c *Collector) PurchaseIntent(itemName string) {
	c.purchases.WithLabelValues(itemName).Inc()
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrOutOfRangeChoice):
		return "out_of_range"
	case errors.Is(err, model.ErrStaleChoice):
		return "stale_choice"
	case errors.Is(err, model.ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, model.ErrUnknownAction):
		return "unknown_action"
	default:
		return "other"
	}
}

// Serve exposes the registry on /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
