// Package scan sequences the phases of one instrument scan: validate,
// pre-scan, detector/trigger setup, run, and a teardown that is guaranteed
// to execute on every exit path. Absolute and differential scans are two
// hook-table variants of the same machine.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Phase enumerates the lifecycle states of a scan.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhasePreScan
	PhaseDetectorsReady
	PhaseTriggersReady
	PhaseRunning
	PhasePostScan
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhasePreScan:
		return "pre-scan"
	case PhaseDetectorsReady:
		return "detectors-ready"
	case PhaseTriggersReady:
		return "triggers-ready"
	case PhaseRunning:
		return "running"
	case PhasePostScan:
		return "post-scan"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Hook runs at one extension point of the lifecycle. A nil hook is a no-op.
type Hook func(*Scan) error

// Hooks is the extension table for one scan variant. The lifecycle itself
// owns the sequencing; hooks only fill in variant behavior.
type Hooks struct {
	Validate       Hook
	PreScan        Hook
	SetupDetectors Hook
	SetupTriggers  Hook
	PostScan       Hook
}

// Config assembles a Scan.
type Config struct {
	Engine ports.Engine
	Obs    ports.Observability
	Policy ports.Policy
	Hooks  Hooks

	// DefaultDetectors and DefaultTriggers are always appended after the
	// per-scan lists, so per-scan instruments layer on top of persistent
	// ones instead of replacing them.
	DefaultDetectors []ports.Detector
	DefaultTriggers  []ports.Trigger
}

// Scan is one reusable scan instance. It is not safe for concurrent runs;
// the caller owns exclusive use of the involved positioners for the
// duration of each Run.
type Scan struct {
	engine ports.Engine
	obs    ports.Observability
	policy ports.Policy
	hooks  Hooks

	positioners  []ports.Positioner
	trajectories []domain.Trajectory

	detectors        []ports.Detector
	triggers         []ports.Trigger
	defaultDetectors []ports.Detector
	defaultTriggers  []ports.Trigger

	phase Phase
	runID int
	last  *domain.RunRecord
}

// New builds a Scan from the given configuration. Engine is required;
// a nil Obs falls back to a no-op implementation.
func New(cfg Config) (*Scan, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("scan: engine is required")
	}
	obs := cfg.Obs
	if obs == nil {
		obs = nopObs{}
	}
	return &Scan{
		engine:           cfg.Engine,
		obs:              obs,
		policy:           cfg.Policy,
		hooks:            cfg.Hooks,
		defaultDetectors: cfg.DefaultDetectors,
		defaultTriggers:  cfg.DefaultTriggers,
		phase:            PhaseIdle,
	}, nil
}

// SetPath installs the positioners and their trajectories for the next run.
// Both slices are borrowed until Run returns.
func (s *Scan) SetPath(positioners []ports.Positioner, trajectories []domain.Trajectory) {
	s.positioners = positioners
	s.trajectories = trajectories
}

// SetDetectors replaces the per-scan detector list. Defaults still apply.
func (s *Scan) SetDetectors(dets []ports.Detector) { s.detectors = dets }

// SetTriggers replaces the per-scan trigger list. Defaults still apply.
func (s *Scan) SetTriggers(trs []ports.Trigger) { s.triggers = trs }

// Positioners returns the positioners installed for the next run.
func (s *Scan) Positioners() []ports.Positioner { return s.positioners }

// Trajectories returns the trajectories installed for the next run.
func (s *Scan) Trajectories() []domain.Trajectory { return s.trajectories }

// Phase reports the current lifecycle phase.
func (s *Scan) Phase() Phase { return s.phase }

// RunID reports the id of the last run, zero before the first.
func (s *Scan) RunID() int { return s.runID }

// Last returns the record of the most recent successful acquisition.
func (s *Scan) Last() *domain.RunRecord { return s.last }

// Policy exposes the scan's timing policy to hooks.
func (s *Scan) Policy() ports.Policy { return s.policy }

// Run executes one full scan. Teardown runs on every path that got past
// pre-scan, and a teardown failure is joined with any in-flight error
// rather than replacing it. A record is returned whenever a dataset was
// captured, even if teardown subsequently failed.
func (s *Scan) Run(ctx context.Context) (*domain.RunRecord, error) {
	s.setPhase(PhaseValidating)
	if err := s.runHook(s.hooks.Validate, s.validatePath); err != nil {
		s.setPhase(PhaseFailed)
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	rec, err := s.acquire(ctx)
	if err != nil {
		s.setPhase(PhaseFailed)
		s.obs.IncCounter(metricRunFailures, 1)
		return rec, err
	}
	s.setPhase(PhaseDone)
	s.obs.IncCounter(metricRunsCompleted, 1)
	return rec, nil
}

// acquire is the scoped-acquisition block: PreScan acquires, PostScan is
// the guaranteed release.
func (s *Scan) acquire(ctx context.Context) (rec *domain.RunRecord, err error) {
	started := time.Now()

	if hookErr := s.runHook(s.hooks.PreScan, nil); hookErr != nil {
		return nil, fmt.Errorf("%w: pre-scan: %w", ErrSetup, hookErr)
	}
	s.setPhase(PhasePreScan)

	defer func() {
		s.setPhase(PhasePostScan)
		if tearErr := s.runHook(s.hooks.PostScan, nil); tearErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrTeardown, tearErr))
		}
		s.obs.ObserveLatency(metricRunDuration, time.Since(started).Seconds())
	}()

	if hookErr := s.runHook(s.hooks.SetupDetectors, nil); hookErr != nil {
		err = fmt.Errorf("%w: detectors: %w", ErrSetup, hookErr)
		return nil, err
	}
	s.setPhase(PhaseDetectorsReady)

	if hookErr := s.runHook(s.hooks.SetupTriggers, nil); hookErr != nil {
		err = fmt.Errorf("%w: triggers: %w", ErrSetup, hookErr)
		return nil, err
	}
	s.setPhase(PhaseTriggersReady)

	for i, p := range s.positioners {
		if trajErr := p.SetTrajectory(s.trajectories[i]); trajErr != nil {
			err = fmt.Errorf("%w: trajectory for %s: %w", ErrSetup, p.Name(), trajErr)
			return nil, err
		}
	}

	id := s.runID + 1
	s.runID = id
	req := ports.Request{
		Positioners:  s.positioners,
		Trajectories: s.trajectories,
		Detectors:    s.EffectiveDetectors(),
		Triggers:     s.EffectiveTriggers(),
		SettleTime:   s.policy.SettleTime,
		RunKey:       uuid.New(),
	}

	s.setPhase(PhaseRunning)
	data, runErr := s.engine.StartRun(ctx, id, req)
	if runErr != nil {
		err = fmt.Errorf("%w: run %d: %w", ErrExecution, id, runErr)
		return nil, err
	}

	rec = &domain.RunRecord{ID: id, Key: req.RunKey, StartedAt: started, Data: data}
	s.last = rec
	return rec, nil
}

// EffectiveDetectors merges the per-scan detectors with the configured
// defaults: overrides first, defaults appended after.
func (s *Scan) EffectiveDetectors() []ports.Detector {
	out := make([]ports.Detector, 0, len(s.detectors)+len(s.defaultDetectors))
	out = append(out, s.detectors...)
	return append(out, s.defaultDetectors...)
}

// EffectiveTriggers merges the per-scan triggers with the configured
// defaults, in the same order as EffectiveDetectors.
func (s *Scan) EffectiveTriggers() []ports.Trigger {
	out := make([]ports.Trigger, 0, len(s.triggers)+len(s.defaultTriggers))
	out = append(out, s.triggers...)
	return append(out, s.defaultTriggers...)
}

func (s *Scan) runHook(h Hook, fallback Hook) error {
	if h == nil {
		h = fallback
	}
	if h == nil {
		return nil
	}
	return h(s)
}

func (s *Scan) validatePath(*Scan) error {
	if len(s.positioners) != len(s.trajectories) {
		return fmt.Errorf("%d positioners but %d trajectories", len(s.positioners), len(s.trajectories))
	}
	for i := 1; i < len(s.trajectories); i++ {
		if len(s.trajectories[i]) != len(s.trajectories[0]) {
			return fmt.Errorf("trajectory %d has %d points, expected %d",
				i, len(s.trajectories[i]), len(s.trajectories[0]))
		}
	}
	return nil
}

func (s *Scan) setPhase(p Phase) {
	s.phase = p
	s.obs.SetGauge(metricPhase, float64(p))
	s.obs.LogInfo("scan_phase", ports.Field{Key: "phase", Value: p.String()})
}

// Metric names recorded through the Observability port.
const (
	metricRunsCompleted = "scanflow_runs_completed_total"
	metricRunFailures   = "scanflow_run_failures_total"
	metricRunDuration   = "scanflow_run_duration_seconds"
	metricPhase         = "scanflow_scan_phase"
	metricRestoreWait   = "scanflow_restore_wait_seconds"
)

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) ObserveLatency(string, float64)         {}
func (nopObs) SetGauge(string, float64)               {}
