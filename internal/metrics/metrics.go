// Package metrics instruments image generation with Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/dmorgan81/capyattitude/internal/image"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/do"
)

const namespace = "capyattitude"

type Collector struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Image generations by style and outcome",
			},
			[]string{"style", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Time spent waiting for the image service",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"outcome"},
		),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generations_in_flight",
			Help:      "Generations currently waiting on the image service",
		}),
	}
}

// Generator records every call made through the wrapped generator.
type Generator struct {
	next      image.Generator
	collector *Collector
}

func Wrap(next image.Generator, c *Collector) *Generator {
	return &Generator{next: next, collector: c}
}

func NewGenerator(i *do.Injector) (image.Generator, error) {
	return Wrap(do.MustInvoke[*image.GeminiGenerator](i), do.MustInvoke[*Collector](i)), nil
}

func (g *Generator) Generate(ctx context.Context, params image.Params) (image.Result, error) {
	g.collector.inFlight.Inc()
	defer g.collector.inFlight.Dec()

	start := time.Now()
	res, err := g.next.Generate(ctx, params)
	outcome := image.Kind(err)

	g.collector.generations.WithLabelValues(string(params.Style), outcome).Inc()
	g.collector.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return res, err
}
