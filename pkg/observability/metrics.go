package observability

import (
	"context"
	"fmt"
	"io"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "hlg"

// CacheSource reports embedding cache counters.
type CacheSource interface {
	CacheStats() domain.CacheStats
}

// Metrics holds the generator collectors.
type Metrics struct {
	generations     *prometheus.CounterVec
	truncations     prometheus.Counter
	generateSeconds prometheus.Histogram
	stageSeconds    *prometheus.HistogramVec
	outputBytes     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of Generate calls by result.",
			},
			[]string{"result"},
		),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncations_total",
			Help:      "Generations cut short by the output buffer.",
		}),
		generateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Duration of Generate calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		stageSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"stage"},
		),
		outputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Bytes written per successful generation.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.generations, m.truncations, m.generateSeconds, m.stageSeconds, m.outputBytes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks adapts the collectors to lifecycle callbacks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.stageSeconds.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
		},
		OnGenerate: func(_ context.Context, e *domain.GenerateEvent) {
			m.generateSeconds.Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.generations.WithLabelValues("error").Inc()
				return
			}
			m.generations.WithLabelValues("ok").Inc()
			m.outputBytes.Observe(float64(e.Bytes))
			if e.Truncated {
				m.truncations.Inc()
			}
		},
	}
}

// RegisterCache exposes src's cache counters on reg. Values are read at
// gather time.
func RegisterCache(reg prometheus.Registerer, src CacheSource) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding_cache",
			Name:      "hits_total",
			Help:      "Lookups served from memory.",
		}, func() float64 { return float64(src.CacheStats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding_cache",
			Name:      "misses_total",
			Help:      "Lookups read from the embedding file.",
		}, func() float64 { return float64(src.CacheStats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding_cache",
			Name:      "evictions_total",
			Help:      "Vectors dropped to stay within budget.",
		}, func() float64 { return float64(src.CacheStats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "embedding_cache",
			Name:      "resident_bytes",
			Help:      "Bytes of vectors currently held in memory.",
		}, func() float64 { return float64(src.CacheStats().ResidentBytes) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register cache metrics: %w", err)
		}
	}
	return nil
}

// WriteText writes every gathered family in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
