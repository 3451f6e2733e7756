package scanflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/photonworks/ScanFlow/internal/adapters/notify"
	"github.com/photonworks/ScanFlow/internal/adapters/observability"
	"github.com/photonworks/ScanFlow/internal/adapters/sim"
	"github.com/photonworks/ScanFlow/internal/app/config"
	"github.com/photonworks/ScanFlow/internal/app/scan"
	"github.com/photonworks/ScanFlow/internal/app/trajectory"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects
// can construct or modify it programmatically.
type Config = config.Config

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Option customizes the dependencies used by a Scanner.
type Option func(*overrides)

type overrides struct {
	engine           ports.Engine
	notifier         ports.Notifier
	obs              ports.Observability
	policy           *ports.Policy
	defaultDetectors []ports.Detector
	defaultTriggers  []ports.Trigger
	relative         bool
	noNotifier       bool
}

// WithEngine injects a custom execution engine (real beamline control,
// remote RPC, fakes in tests).
func WithEngine(e Engine) Option {
	return func(o *overrides) { o.engine = e }
}

// WithNotifier injects a custom announcement sink.
func WithNotifier(n Notifier) Option {
	return func(o *overrides) {
		o.notifier = n
		o.noNotifier = n == nil
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithPolicy overrides the timing policy from the config file.
func WithPolicy(p Policy) Option {
	return func(o *overrides) { o.policy = &p }
}

// WithDefaultDetectors configures detectors appended to every scan.
func WithDefaultDetectors(dets ...Detector) Option {
	return func(o *overrides) { o.defaultDetectors = dets }
}

// WithDefaultTriggers configures triggers appended to every scan.
func WithDefaultTriggers(trs ...Trigger) Option {
	return func(o *overrides) { o.defaultTriggers = trs }
}

// Relative switches the scanner to differential mode: spans are offsets
// from each positioner's position at scan time, restored afterwards.
func Relative() Option {
	return func(o *overrides) { o.relative = true }
}

// Scanner is the public entry point: it owns one scan lifecycle plus the
// wiring picked from config and options. Not safe for concurrent runs.
type Scanner struct {
	cfg   *Config
	scan  *scan.Scan
	bench *sim.Bench
	obs   ports.Observability

	metricsSrv *http.Server
}

// New assembles a Scanner from configuration. Defaults: Prometheus
// observability, a notifier per the config's notify mode, and a simulated
// bench engine when no real engine is injected.
func New(cfg *Config, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	obs := o.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	notifier := o.notifier
	if notifier == nil && !o.noNotifier {
		var err error
		notifier, err = buildNotifier(cfg.Notify)
		if err != nil {
			return nil, err
		}
	}

	var bench *sim.Bench
	engine := o.engine
	if engine == nil {
		var err error
		bench, err = sim.NewBench(cfg.Bench.Sim())
		if err != nil {
			return nil, fmt.Errorf("default sim engine: %w", err)
		}
		engine = sim.NewEngine()
	}

	policy := cfg.Policy.Ports()
	if o.policy != nil {
		policy = *o.policy
	}

	hooks := scan.Absolute(notifier)
	if o.relative {
		hooks = scan.Differential(notifier)
	}

	sc, err := scan.New(scan.Config{
		Engine:           engine,
		Obs:              obs,
		Policy:           policy,
		Hooks:            hooks,
		DefaultDetectors: o.defaultDetectors,
		DefaultTriggers:  o.defaultTriggers,
	})
	if err != nil {
		return nil, err
	}

	return &Scanner{cfg: cfg, scan: sc, bench: bench, obs: obs}, nil
}

// Conf loads YAML from disk and assembles a Scanner.
func Conf(path string, opts ...Option) (*Scanner, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

func buildNotifier(cfg config.NotifyConfig) (ports.Notifier, error) {
	switch cfg.Mode {
	case "", "log":
		return notify.NewLogNotifier(nil), nil
	case "http":
		return notify.NewHTTPNotifier(cfg.HTTP())
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notify mode %q", cfg.Mode)
	}
}

// Scan runs the given dimensions through one full lifecycle and returns
// the run record.
func (s *Scanner) Scan(ctx context.Context, dims ...Dimension) (*RunRecord, error) {
	pos, paths, err := trajectory.Generate(dims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	s.scan.SetPath(pos, paths)
	return s.scan.Run(ctx)
}

// Execute mirrors the parallel-slice calling convention: any length-1
// input broadcasts across all dimensions, so 1-D and N-D scans read the
// same at the call site.
func (s *Scanner) Execute(ctx context.Context, groups [][]Positioner, starts, stops []float64, intervals []int) (*RunRecord, error) {
	dims, err := trajectory.Plan(groups, starts, stops, intervals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.Scan(ctx, dims...)
}

// SetDetectors replaces the per-scan detector list; defaults still apply.
func (s *Scanner) SetDetectors(dets ...Detector) { s.scan.SetDetectors(dets) }

// SetTriggers replaces the per-scan trigger list; defaults still apply.
func (s *Scanner) SetTriggers(trs ...Trigger) { s.scan.SetTriggers(trs) }

// RunID reports the id of the last run, zero before the first.
func (s *Scanner) RunID() int { return s.scan.RunID() }

// Last returns the record of the most recent successful acquisition.
func (s *Scanner) Last() *RunRecord { return s.scan.Last() }

// Phase reports the current lifecycle phase.
func (s *Scanner) Phase() Phase { return s.scan.Phase() }

// Bench exposes the simulated bench when the default engine is in use,
// nil otherwise.
func (s *Scanner) Bench() *sim.Bench { return s.bench }

// StartMetrics serves the Prometheus endpoint and a health probe on the
// configured address. It returns immediately.
func (s *Scanner) StartMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.metricsSrv = &http.Server{
		Addr:    s.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (s *Scanner) Shutdown(ctx context.Context) error {
	if s.metricsSrv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
