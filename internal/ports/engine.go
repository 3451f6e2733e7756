package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/photonworks/ScanFlow/internal/domain"
)

// Request carries everything an execution engine needs for one run. It is
// built once per run and never shared across scans.
type Request struct {
	Positioners  []Positioner
	Trajectories []domain.Trajectory
	Detectors    []Detector
	Triggers     []Trigger
	SettleTime   time.Duration
	RunKey       uuid.UUID
}

// Engine drives hardware motion and acquisition for one run and hands back
// the captured dataset. Implementations live outside the scan core.
type Engine interface {
	StartRun(ctx context.Context, runID int, req Request) (domain.Dataset, error)
}
