package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

// Dataset is the tabular result of one simulated run: one row per grid
// point, positioner coordinates first, detector readings after.
type Dataset struct {
	RunID   int
	Columns []string
	Rows    [][]float64
}

// Engine steps every trajectory index by index: move all axes, let them
// settle, fire the triggers, read the detectors. It honours context
// cancellation between grid points.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) StartRun(ctx context.Context, runID int, req ports.Request) (domain.Dataset, error) {
	if len(req.Positioners) != len(req.Trajectories) {
		return nil, fmt.Errorf("sim: %d positioners but %d trajectories",
			len(req.Positioners), len(req.Trajectories))
	}

	points := 0
	if len(req.Trajectories) > 0 {
		points = len(req.Trajectories[0])
	}

	ds := &Dataset{RunID: runID}
	for _, p := range req.Positioners {
		ds.Columns = append(ds.Columns, p.Name())
	}
	for _, d := range req.Detectors {
		ds.Columns = append(ds.Columns, d.Name())
	}

	for step := 0; step < points; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sim: run %d interrupted at point %d: %w", runID, step, err)
		}

		coords := make([]float64, len(req.Positioners))
		for i, p := range req.Positioners {
			target := req.Trajectories[i][step]
			if err := p.Move(target, true); err != nil {
				return nil, fmt.Errorf("sim: move %s to %v: %w", p.Name(), target, err)
			}
			coords[i] = target
		}

		if req.SettleTime > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("sim: run %d interrupted while settling: %w", runID, ctx.Err())
			case <-time.After(req.SettleTime):
			}
		}

		for _, tr := range req.Triggers {
			if st, ok := tr.(*Trigger); ok {
				st.Fire()
			}
		}

		row := coords
		for _, det := range req.Detectors {
			if sd, ok := det.(*Detector); ok {
				row = append(row, sd.Read(coords))
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

var _ ports.Engine = (*Engine)(nil)
