package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonworks/ScanFlow/internal/domain"
	"github.com/photonworks/ScanFlow/internal/ports"
)

type fakeAxis struct {
	name string
}

func (f *fakeAxis) Name() string                  { return f.name }
func (f *fakeAxis) Position() (float64, error)    { return 0, nil }
func (f *fakeAxis) Moving() (bool, error)         { return false, nil }
func (f *fakeAxis) Move(float64, bool) error      { return nil }
func (f *fakeAxis) SetTrajectory([]float64) error { return nil }

var _ ports.Positioner = (*fakeAxis)(nil)

func TestGenerateSingleDimension(t *testing.T) {
	m := &fakeAxis{name: "m1"}

	pos, paths, err := Generate([]Dimension{Dim(m, 0, 10, 5)})
	require.NoError(t, err)
	require.Len(t, pos, 1)
	require.Len(t, paths, 1)

	assert.Equal(t, domain.Trajectory{0, 2, 4, 6, 8, 10}, paths[0])
}

func TestGenerateTwoDimensionOrdering(t *testing.T) {
	slow := &fakeAxis{name: "slow"}
	fast := &fakeAxis{name: "fast"}

	pos, paths, err := Generate([]Dimension{
		Dim(slow, 0, 1, 1),
		Dim(fast, 0, 10, 2),
	})
	require.NoError(t, err)
	require.Len(t, pos, 2)

	// Dimension 0 varies slowest, dimension 1 fastest.
	assert.Equal(t, domain.Trajectory{0, 0, 0, 1, 1, 1}, paths[0])
	assert.Equal(t, domain.Trajectory{0, 5, 10, 0, 5, 10}, paths[1])
}

func TestGenerateLengthInvariant(t *testing.T) {
	a := &fakeAxis{name: "a"}
	b := &fakeAxis{name: "b"}
	c := &fakeAxis{name: "c"}

	dims := []Dimension{
		Dim(a, -1, 1, 4),
		Dim(b, 0, 100, 9),
		Dim(c, 2, 3, 2),
	}
	pos, paths, err := Generate(dims)
	require.NoError(t, err)
	require.Len(t, pos, 3)

	want := 5 * 10 * 3
	for i, p := range paths {
		assert.Lenf(t, p, want, "trajectory %d", i)
	}
}

func TestGenerateGroupedPositionersShareAPath(t *testing.T) {
	a := &fakeAxis{name: "a"}
	b := &fakeAxis{name: "b"}
	solo := &fakeAxis{name: "solo"}

	dims := []Dimension{
		{Group: []ports.Positioner{a, b}, Span: domain.Span{Start: 0, Stop: 4, Intervals: 2}},
		{Group: []ports.Positioner{solo}, Span: domain.Span{Start: 0, Stop: 1, Intervals: 1}},
	}
	pos, paths, err := Generate(dims)
	require.NoError(t, err)
	require.Len(t, pos, 3)
	require.Len(t, paths, 3)

	assert.Equal(t, paths[0], paths[1])

	// Copies, not shared backing storage.
	paths[0][0] = 999
	assert.NotEqual(t, paths[0][0], paths[1][0])
}

func TestGenerateZeroIntervalFreezesAxis(t *testing.T) {
	frozen := &fakeAxis{name: "frozen"}
	sweep := &fakeAxis{name: "sweep"}

	_, paths, err := Generate([]Dimension{
		Dim(frozen, 7, 7, 0),
		Dim(sweep, 0, 3, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Trajectory{7, 7, 7, 7}, paths[0])
	assert.Equal(t, domain.Trajectory{0, 1, 2, 3}, paths[1])
}

func TestGenerateIdempotent(t *testing.T) {
	m := &fakeAxis{name: "m"}
	n := &fakeAxis{name: "n"}
	dims := []Dimension{
		Dim(m, 0, 1, 3),
		Dim(n, 5, -5, 2),
	}

	_, first, err := Generate(dims)
	require.NoError(t, err)
	_, second, err := Generate(dims)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRejectsBadDimensions(t *testing.T) {
	m := &fakeAxis{name: "m"}

	_, _, err := Generate(nil)
	assert.Error(t, err)

	_, _, err = Generate([]Dimension{{Span: domain.Span{Intervals: 1}}})
	assert.Error(t, err)

	_, _, err = Generate([]Dimension{Dim(m, 0, 1, -1)})
	assert.Error(t, err)
}

func TestBroadcast(t *testing.T) {
	got, err := Broadcast([]float64{1.5}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 1.5, 1.5}, got)

	got, err = Broadcast([]float64{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = Broadcast([]float64{1, 2}, 3)
	assert.Error(t, err)
}

func TestPlanBroadcastsScalars(t *testing.T) {
	m := &fakeAxis{name: "m"}
	n := &fakeAxis{name: "n"}

	dims, err := Plan(
		[][]ports.Positioner{{m}, {n}},
		[]float64{0},
		[]float64{10},
		[]int{1, 4},
	)
	require.NoError(t, err)
	require.Len(t, dims, 2)

	assert.Equal(t, domain.Span{Start: 0, Stop: 10, Intervals: 1}, dims[0].Span)
	assert.Equal(t, domain.Span{Start: 0, Stop: 10, Intervals: 4}, dims[1].Span)
}
