package scanflow

import (
	"context"
	"fmt"
)

// Plan is a fluent builder for one scan: chain the axes to sweep, the
// instruments to read, then Run. The zero-value chain reads top to bottom
// the way the scan will execute, outermost dimension first.
type Plan struct {
	scanner *Scanner
	dims    []Dimension
	dets    []Detector
	trigs   []Trigger
	err     error
}

// Plan starts a new scan description on this scanner.
func (s *Scanner) Plan() *Plan {
	return &Plan{scanner: s}
}

// Over adds one dimension swept by a single positioner. Dimensions are
// ordered slowest first; the last Over varies fastest.
func (p *Plan) Over(pos Positioner, start, stop float64, intervals int) *Plan {
	if p.err == nil && pos == nil {
		p.err = fmt.Errorf("nil positioner for dimension %d", len(p.dims))
		return p
	}
	p.dims = append(p.dims, Dim(pos, start, stop, intervals))
	return p
}

// OverGroup adds one dimension swept by several positioners moving
// together; each receives an identical trajectory.
func (p *Plan) OverGroup(group []Positioner, start, stop float64, intervals int) *Plan {
	if p.err == nil && len(group) == 0 {
		p.err = fmt.Errorf("empty positioner group for dimension %d", len(p.dims))
		return p
	}
	p.dims = append(p.dims, Dimension{
		Group: group,
		Span:  Span{Start: start, Stop: stop, Intervals: intervals},
	})
	return p
}

// Reading sets the per-scan detectors; configured defaults still apply.
func (p *Plan) Reading(dets ...Detector) *Plan {
	p.dets = dets
	return p
}

// Firing sets the per-scan triggers; configured defaults still apply.
func (p *Plan) Firing(trs ...Trigger) *Plan {
	p.trigs = trs
	return p
}

// Run executes the planned scan through the scanner's lifecycle.
func (p *Plan) Run(ctx context.Context) (*RunRecord, error) {
	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, p.err)
	}
	if len(p.dims) == 0 {
		return nil, fmt.Errorf("%w: plan has no dimensions", ErrValidation)
	}
	if p.dets != nil {
		p.scanner.SetDetectors(p.dets...)
	}
	if p.trigs != nil {
		p.scanner.SetTriggers(p.trigs...)
	}
	return p.scanner.Scan(ctx, p.dims...)
}
