package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/photonworks/ScanFlow/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_runs_completed_total",
		Help: "Scans that reached the done phase with a captured dataset.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_run_failures_total",
		Help: "Scans that ended in the failed phase.",
	})
	phase := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scanflow_scan_phase",
		Help: "Current lifecycle phase of the most recent scan.",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanflow_run_duration_seconds",
		Help:    "Wall time from pre-scan through teardown.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
	restoreWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanflow_restore_wait_seconds",
		Help:    "Teardown time spent waiting for positioners to stop moving.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	prometheus.MustRegister(completed, failures, phase, runDuration, restoreWait)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"scanflow_runs_completed_total": completed,
			"scanflow_run_failures_total":   failures,
		},
		gauges: map[string]prometheus.Gauge{
			"scanflow_scan_phase": phase,
		},
		histos: map[string]prometheus.Observer{
			"scanflow_run_duration_seconds": runDuration,
			"scanflow_restore_wait_seconds": restoreWait,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
