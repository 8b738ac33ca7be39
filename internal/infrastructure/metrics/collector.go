package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ormcore/internal/orm"
)

// Collector records unit-of-work telemetry. It implements orm.Observer.
type Collector struct {
	Commits        *prometheus.CounterVec
	Actions        *prometheus.CounterVec
	CommitDuration *prometheus.HistogramVec
	CommitActions  prometheus.Histogram
}

var _ orm.Observer = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uow",
			Name:      "commits_total",
		}, []string{"result"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uow",
			Name:      "actions_total",
		}, []string{"verb", "entity"}),
		CommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "uow",
			Name:      "commit_duration_seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		CommitActions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "uow",
			Name:      "commit_actions",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		}),
	}
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.Commits, c.Actions, c.CommitDuration, c.CommitActions} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) ObserveAction(verb orm.Verb, entityType string) {
	c.Actions.WithLabelValues(string(verb), entityType).Inc()
}

func (c *Collector) ObserveCommit(result string, actions int, elapsed time.Duration) {
	c.Commits.WithLabelValues(result).Inc()
	c.CommitDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	c.CommitActions.Observe(float64(actions))
}
