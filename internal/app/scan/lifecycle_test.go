package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

func TestRunHappyPath(t *testing.T) {
	eng := &mockEngine{data: "dataset-1"}
	s := mustNew(t, Config{Engine: eng})

	p := &mockPositioner{name: "m1"}
	s.SetPath([]ports.Positioner{p}, []domain.Trajectory{{0, 1, 2}})

	rec, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if rec == nil || rec.Data != "dataset-1" {
		t.Fatalf("expected captured dataset, got %+v", rec)
	}
	if rec.ID != 1 {
		t.Fatalf("expected first run id 1, got %d", rec.ID)
	}
	if s.Phase() != PhaseDone {
		t.Fatalf("expected phase done, got %s", s.Phase())
	}
	if len(p.setPaths) != 1 || len(p.setPaths[0]) != 3 {
		t.Fatalf("expected trajectory assigned to positioner, got %v", p.setPaths)
	}
	if s.Last() != rec {
		t.Fatalf("expected Last to return the new record")
	}
}

func TestRunIDMonotonic(t *testing.T) {
	s := mustNew(t, Config{Engine: &mockEngine{data: "d"}})
	s.SetPath(nil, nil)

	for want := 1; want <= 3; want++ {
		rec, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", want, err)
		}
		if rec.ID != want {
			t.Fatalf("expected run id %d, got %d", want, rec.ID)
		}
	}
	if s.RunID() != 3 {
		t.Fatalf("expected last run id 3, got %d", s.RunID())
	}
}

func TestValidationFailureSkipsTeardown(t *testing.T) {
	tear := &hookCounter{}
	s := mustNew(t, Config{
		Engine: &mockEngine{},
		Hooks:  Hooks{PostScan: tear.hook()},
	})
	p := &mockPositioner{name: "m1"}
	s.SetPath([]ports.Positioner{p}, nil) // mismatched lengths

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if tear.calls != 0 {
		t.Fatalf("teardown must not run before pre-scan, ran %d times", tear.calls)
	}
	if s.Phase() != PhaseFailed {
		t.Fatalf("expected failed phase, got %s", s.Phase())
	}
}

func TestMismatchedTrajectoryLengthsRejected(t *testing.T) {
	s := mustNew(t, Config{Engine: &mockEngine{}})
	s.SetPath(
		[]ports.Positioner{&mockPositioner{name: "a"}, &mockPositioner{name: "b"}},
		[]domain.Trajectory{{0, 1}, {0, 1, 2}},
	)

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTeardownRunsExactlyOnceOnEachFailure(t *testing.T) {
	boom := fmt.Errorf("boom")

	cases := []struct {
		name  string
		hooks func(*hookCounter) Hooks
		eng   *mockEngine
		class error
	}{
		{
			name: "detector setup fails",
			hooks: func(tear *hookCounter) Hooks {
				return Hooks{
					SetupDetectors: func(*Scan) error { return boom },
					PostScan:       tear.hook(),
				}
			},
			eng:   &mockEngine{},
			class: ErrSetup,
		},
		{
			name: "trigger setup fails",
			hooks: func(tear *hookCounter) Hooks {
				return Hooks{
					SetupTriggers: func(*Scan) error { return boom },
					PostScan:      tear.hook(),
				}
			},
			eng:   &mockEngine{},
			class: ErrSetup,
		},
		{
			name: "engine fails",
			hooks: func(tear *hookCounter) Hooks {
				return Hooks{PostScan: tear.hook()}
			},
			eng:   &mockEngine{err: boom},
			class: ErrExecution,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tear := &hookCounter{}
			s := mustNew(t, Config{Engine: tc.eng, Hooks: tc.hooks(tear)})
			s.SetPath(nil, nil)

			rec, err := s.Run(context.Background())
			if tear.calls != 1 {
				t.Fatalf("expected teardown exactly once, got %d", tear.calls)
			}
			if !errors.Is(err, tc.class) {
				t.Fatalf("expected error class %v, got %v", tc.class, err)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("original error must propagate, got %v", err)
			}
			if rec != nil {
				t.Fatalf("no dataset should be recorded, got %+v", rec)
			}
		})
	}
}

func TestEngineFailureLeavesDataUnset(t *testing.T) {
	s := mustNew(t, Config{Engine: &mockEngine{err: fmt.Errorf("detector offline")}})
	s.SetPath(nil, nil)

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if s.Last() != nil {
		t.Fatalf("expected no recorded data after failed run")
	}
	if s.RunID() != 1 {
		t.Fatalf("failed run still consumes an id, got %d", s.RunID())
	}
}

func TestTeardownErrorJoinsExecutionError(t *testing.T) {
	engineErr := fmt.Errorf("engine down")
	tearErr := fmt.Errorf("restore jammed")
	s := mustNew(t, Config{
		Engine: &mockEngine{err: engineErr},
		Hooks:  Hooks{PostScan: func(*Scan) error { return tearErr }},
	})
	s.SetPath(nil, nil)

	_, err := s.Run(context.Background())
	for _, want := range []error{ErrExecution, ErrTeardown, engineErr, tearErr} {
		if !errors.Is(err, want) {
			t.Fatalf("expected %v to be surfaced, got %v", want, err)
		}
	}
}

func TestTeardownErrorRetainsCapturedData(t *testing.T) {
	s := mustNew(t, Config{
		Engine: &mockEngine{data: "good-data"},
		Hooks:  Hooks{PostScan: func(*Scan) error { return fmt.Errorf("jam") }},
	})
	s.SetPath(nil, nil)

	rec, err := s.Run(context.Background())
	if !errors.Is(err, ErrTeardown) {
		t.Fatalf("expected teardown error, got %v", err)
	}
	if errors.Is(err, ErrExecution) {
		t.Fatalf("no execution error should be reported, got %v", err)
	}
	if rec == nil || rec.Data != "good-data" {
		t.Fatalf("captured dataset must survive teardown failure, got %+v", rec)
	}
	if s.Last() == nil || s.Last().Data != "good-data" {
		t.Fatalf("expected dataset retained on the scan")
	}
}

func TestPreScanFailureSkipsTeardown(t *testing.T) {
	tear := &hookCounter{}
	s := mustNew(t, Config{
		Engine: &mockEngine{},
		Hooks: Hooks{
			PreScan:  func(*Scan) error { return fmt.Errorf("no anchor") },
			PostScan: tear.hook(),
		},
	})
	s.SetPath(nil, nil)

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if tear.calls != 0 {
		t.Fatalf("teardown must not run when acquisition never happened, ran %d times", tear.calls)
	}
}

func TestEffectiveInstrumentsLayerDefaultsAfterOverrides(t *testing.T) {
	defDet := namedInstrument("default-det")
	defTrig := namedInstrument("default-trig")
	eng := &mockEngine{data: "d"}

	s := mustNew(t, Config{
		Engine:           eng,
		DefaultDetectors: []ports.Detector{defDet},
		DefaultTriggers:  []ports.Trigger{defTrig},
	})
	s.SetDetectors([]ports.Detector{namedInstrument("scaler")})
	s.SetTriggers([]ports.Trigger{namedInstrument("shutter")})
	s.SetPath(nil, nil)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	dets := eng.req.Detectors
	if len(dets) != 2 || dets[0].Name() != "scaler" || dets[1].Name() != "default-det" {
		t.Fatalf("expected overrides before defaults, got %v", names(dets))
	}
	trigs := eng.req.Triggers
	if len(trigs) != 2 || trigs[0].Name() != "shutter" || trigs[1].Name() != "default-trig" {
		t.Fatalf("expected overrides before defaults, got %v", namesT(trigs))
	}
}

func TestRequestCarriesSettleTimeAndKey(t *testing.T) {
	eng := &mockEngine{data: "d"}
	s := mustNew(t, Config{
		Engine: eng,
		Policy: ports.Policy{SettleTime: 250 * time.Millisecond},
	})
	s.SetPath(nil, nil)

	rec, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if eng.req.SettleTime != 250*time.Millisecond {
		t.Fatalf("expected settle time on request, got %s", eng.req.SettleTime)
	}
	if rec.Key != eng.req.RunKey {
		t.Fatalf("record key must match request key")
	}

	first := rec.Key
	rec2, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rec2.Key == first {
		t.Fatalf("each run must carry a fresh key")
	}
}

func TestSetTrajectoryFailureIsSetupError(t *testing.T) {
	tear := &hookCounter{}
	p := &mockPositioner{name: "m1", setErr: fmt.Errorf("controller rejected path")}
	s := mustNew(t, Config{Engine: &mockEngine{}, Hooks: Hooks{PostScan: tear.hook()}})
	s.SetPath([]ports.Positioner{p}, []domain.Trajectory{{0, 1}})

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if tear.calls != 1 {
		t.Fatalf("teardown must still run, got %d calls", tear.calls)
	}
}

func mustNew(t *testing.T, cfg Config) *Scan {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

type mockEngine struct {
	data domain.Dataset
	err  error

	calls int
	runID int
	req   ports.Request
}

func (m *mockEngine) StartRun(_ context.Context, runID int, req ports.Request) (domain.Dataset, error) {
	m.calls++
	m.runID = runID
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockPositioner struct {
	mu       sync.Mutex
	name     string
	position float64
	setErr   error
	moveErr  error

	// movingPolls is how many Moving calls report true before settling.
	movingPolls int
	polls       int

	moves    []float64
	setPaths [][]float64
}

func (m *mockPositioner) Name() string { return m.name }

func (m *mockPositioner) Position() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, nil
}

func (m *mockPositioner) Moving() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	return m.polls <= m.movingPolls, nil
}

func (m *mockPositioner) Move(target float64, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.moveErr != nil {
		return m.moveErr
	}
	m.moves = append(m.moves, target)
	m.position = target
	return nil
}

func (m *mockPositioner) SetTrajectory(path []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.setPaths = append(m.setPaths, append([]float64(nil), path...))
	return nil
}

type hookCounter struct {
	calls int
	err   error
}

func (h *hookCounter) hook() Hook {
	return func(*Scan) error {
		h.calls++
		return h.err
	}
}

type namedInstrument string

func (n namedInstrument) Name() string { return string(n) }

func names(ds []ports.Detector) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

func namesT(ts []ports.Trigger) []string {
	out := make([]string, len(ts))
	for i, tr := range ts {
		out[i] = tr.Name()
	}
	return out
}
