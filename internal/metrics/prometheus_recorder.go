package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "doccmerge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	moduleBuild   *prom.HistogramVec
	moduleResults *prom.CounterVec
	contentCopied prom.Counter
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual merge stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total merge run duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Merge runs by final status",
		}, []string{"outcome"})
		pr.moduleBuild = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "module_build_duration_seconds",
			Help:      "Duration of documentation compiler invocations per module",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"module", "result"})
		pr.moduleResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "module_results_total",
			Help:      "Module build results",
		}, []string{"result"})
		pr.contentCopied = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_trees_copied_total",
			Help:      "Namespaced content subtrees copied into merged archives",
		})
		pr.lastRun = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last merge run finished",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
			pr.moduleBuild, pr.moduleResults, pr.contentCopied, pr.lastRun)
	})
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveModuleBuild(module string, d time.Duration, result ModuleResultLabel) {
	if p == nil || p.moduleBuild == nil {
		return
	}
	p.moduleBuild.WithLabelValues(module, string(result)).Observe(d.Seconds())
	p.moduleResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddContentCopied(n int) {
	if p == nil || p.contentCopied == nil || n <= 0 {
		return
	}
	p.contentCopied.Add(float64(n))
}
