package scanflow

import (
	"github.com/photonworks/ScanFlow/internal/app/scan"
	"github.com/photonworks/ScanFlow/internal/app/trajectory"
	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Trajectory is the ordered setpoint sequence one positioner follows.
type Trajectory = domain.Trajectory

// Span is one axis of the scan grid: start, stop and interval count.
type Span = domain.Span

// Dataset is the opaque payload an execution engine returns.
type Dataset = domain.Dataset

// RunRecord identifies one completed run and carries its dataset.
type RunRecord = domain.RunRecord

// Positioner is one controllable axis.
type Positioner = ports.Positioner

// Detector is an opaque handle to a measuring instrument.
type Detector = ports.Detector

// Trigger is an opaque handle to an acquisition trigger.
type Trigger = ports.Trigger

// Engine is the execution boundary that drives hardware and returns data.
type Engine = ports.Engine

// Notifier receives human-readable scan announcements.
type Notifier = ports.Notifier

// Observability emits metrics and logs about scan progress.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Policy carries the timing knobs: settle time, teardown poll interval
// and teardown timeout.
type Policy = ports.Policy

// Request is the full argument set handed to an Engine for one run.
type Request = ports.Request

// Dimension couples a positioner group with the span it sweeps.
type Dimension = trajectory.Dimension

// Hooks is the per-variant extension table of the scan lifecycle.
type Hooks = scan.Hooks

// Phase enumerates the lifecycle states of a scan.
type Phase = scan.Phase

// Lifecycle phases, re-exported for callers inspecting scan state.
const (
	PhaseIdle           = scan.PhaseIdle
	PhaseValidating     = scan.PhaseValidating
	PhasePreScan        = scan.PhasePreScan
	PhaseDetectorsReady = scan.PhaseDetectorsReady
	PhaseTriggersReady  = scan.PhaseTriggersReady
	PhaseRunning        = scan.PhaseRunning
	PhasePostScan       = scan.PhasePostScan
	PhaseDone           = scan.PhaseDone
	PhaseFailed         = scan.PhaseFailed
)

// Error classes of the scan lifecycle.
var (
	ErrValidation = scan.ErrValidation
	ErrSetup      = scan.ErrSetup
	ErrExecution  = scan.ErrExecution
	ErrTeardown   = scan.ErrTeardown
)

// Dim builds a single-positioner dimension.
func Dim(p Positioner, start, stop float64, intervals int) Dimension {
	return trajectory.Dim(p, start, stop, intervals)
}

// Generate exposes the trajectory generator for callers that drive an
// Engine directly.
func Generate(dims []Dimension) ([]Positioner, []Trajectory, error) {
	return trajectory.Generate(dims)
}
