package scanflow

import (
	"context"

	base "github.com/photonworks/ScanFlow/pkg/scanflow"
)

// Re-exported error classes for convenience.
var (
	ErrValidation = base.ErrValidation
	ErrSetup      = base.ErrSetup
	ErrExecution  = base.ErrExecution
	ErrTeardown   = base.ErrTeardown
)

// Type aliases so consumers can import github.com/photonworks/ScanFlow directly.
type (
	Config        = base.Config
	Option        = base.Option
	Scanner       = base.Scanner
	Plan          = base.Plan
	Dimension     = base.Dimension
	Span          = base.Span
	Trajectory    = base.Trajectory
	Dataset       = base.Dataset
	RunRecord     = base.RunRecord
	Request       = base.Request
	Policy        = base.Policy
	Positioner    = base.Positioner
	Detector      = base.Detector
	Trigger       = base.Trigger
	Engine        = base.Engine
	Notifier      = base.Notifier
	Observability = base.Observability
	Field         = base.Field
	Hooks         = base.Hooks
	Phase         = base.Phase
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Scanner construction.
func New(cfg *Config, opts ...Option) (*Scanner, error) {
	return base.New(cfg, opts...)
}

func Conf(path string, opts ...Option) (*Scanner, error) {
	return base.Conf(path, opts...)
}

// Options.
func WithEngine(e Engine) Option {
	return base.WithEngine(e)
}

func WithNotifier(n Notifier) Option {
	return base.WithNotifier(n)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithPolicy(p Policy) Option {
	return base.WithPolicy(p)
}

func WithDefaultDetectors(dets ...Detector) Option {
	return base.WithDefaultDetectors(dets...)
}

func WithDefaultTriggers(trs ...Trigger) Option {
	return base.WithDefaultTriggers(trs...)
}

func Relative() Option {
	return base.Relative()
}

// Grid helpers.
func Dim(p Positioner, start, stop float64, intervals int) Dimension {
	return base.Dim(p, start, stop, intervals)
}

func Generate(dims []Dimension) ([]Positioner, []Trajectory, error) {
	return base.Generate(dims)
}

// Run executes a one-off scan: load config, build a scanner, run the
// given dimensions.
func Run(ctx context.Context, path string, dims []Dimension, opts ...Option) (*RunRecord, error) {
	s, err := Conf(path, opts...)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, dims...)
}
