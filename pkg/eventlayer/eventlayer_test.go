package eventlayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/numeric"
)

func TestDetectFindsSignChange(t *testing.T) {
	d, err := device.NewDiode("D1", []string{"a", "0"}, 0.7, 1e-2, 1e6)
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	events := []device.EventDevice{d}
	prev := []float64{0.0}
	next := []float64{1.0}

	found := Detect(events, prev, next)
	assert.Same(t, device.EventDevice(d), found)
}

func TestDetectReturnsNilWithoutCrossing(t *testing.T) {
	d, err := device.NewDiode("D1", []string{"a", "0"}, 0.7, 1e-2, 1e6)
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	events := []device.EventDevice{d}
	prev := []float64{-1.0}
	next := []float64{-0.5}

	assert.Nil(t, Detect(events, prev, next))
}

func TestLocalizeBisectsToTolerance(t *testing.T) {
	d, err := device.NewDiode("D1", []string{"a", "0"}, 0.7, 1e-2, 1e6)
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	// Voltage ramps linearly from 0 to 1.4V over [0,1]s; the diode's
	// zero-crossing (Va - Vf) is 0 at t=0.5.
	solveAt := func(t float64) ([]float64, error) {
		return []float64{1.4 * t}, nil
	}

	tEvent, _, err := Localize(d, 0, 1, solveAt)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tEvent, 1e-6)
}

func TestLocalizeFailsWithoutBracket(t *testing.T) {
	d, err := device.NewDiode("D1", []string{"a", "0"}, 0.7, 1e-2, 1e6)
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	solveAt := func(t float64) ([]float64, error) {
		return []float64{0.0}, nil
	}

	_, _, err = Localize(d, 0, 1, solveAt)
	assert.Error(t, err)
}

func TestRestampCopiesSnapshotThenAppliesEventStamps(t *testing.T) {
	snapshot := numeric.NewDense(2)
	snapshot.AddElement(0, 0, 1.0)

	m := numeric.NewDense(2)
	sw, err := device.NewSwitch("S1", []string{"a", "0"}, 1e-3, 1e6)
	require.NoError(t, err)
	sw.SetNodes([]int{0, -1})
	sw.SetValue(1)

	err = Restamp(m, snapshot, []device.EventDevice{sw}, nil, &device.Context{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0+1.0/1e-3, m.At(0, 0), 1e-9)
}
