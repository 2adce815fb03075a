package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

func TestResistorRejectsNonPositiveValue(t *testing.T) {
	_, err := NewResistor("R1", []string{"1", "0"}, -10)
	require.Error(t, err)
}

func TestResistorRejectsWrongArity(t *testing.T) {
	_, err := NewResistor("R1", []string{"1"}, 10)
	require.Error(t, err)
}

func TestResistorStampsSymmetricConductance(t *testing.T) {
	r, err := NewResistor("R1", []string{"1", "0"}, 1000)
	require.NoError(t, err)
	r.SetNodes([]int{0, -1})

	m := numeric.NewDense(1)
	require.NoError(t, r.Stamp(m, &Context{}))
	assert.InDelta(t, 1.0/1000.0, m.At(0, 0), 1e-12)
}

func TestResistorTempCoefficientsShiftConductanceAwayFromNominal(t *testing.T) {
	r, err := NewResistor("R1", []string{"1", "0"}, 1000)
	require.NoError(t, err)
	r.SetNodes([]int{0, -1})
	r.TempCoeff1 = 1e-3

	m := numeric.NewDense(1)
	require.NoError(t, r.Stamp(m, &Context{Temp: r.NominalTemp + 50}))

	dt := 50.0
	wantR := 1000.0 * (1.0 + r.TempCoeff1*dt)
	assert.InDelta(t, 1.0/wantR, m.At(0, 0), 1e-12)
	assert.NotInDelta(t, 1.0/1000.0, m.At(0, 0), 1e-9)
}

func TestCapacitorLargeAdmittanceStamp(t *testing.T) {
	c, err := NewCapacitor("C1", []string{"out", "0"}, 1e-6)
	require.NoError(t, err)
	c.SetNodes([]int{0, -1})
	c.SetStateIndex(0)

	m := numeric.NewDense(1)
	require.NoError(t, c.Stamp(m, &Context{}))
	assert.InDelta(t, c.LargeAdmittance, m.At(0, 0), 1e-6)

	require.NoError(t, c.UpdateRHS(m, []float64{3.0}, 0, &Context{}))
	assert.InDelta(t, c.LargeAdmittance*3.0, m.RHS()[0], 1e-6)
}

func TestCapacitorStateDerivativeClamped(t *testing.T) {
	c, err := NewCapacitor("C1", []string{"out", "0"}, 1e-6)
	require.NoError(t, err)
	c.SetNodes([]int{0, -1})

	deriv := c.UpdateState([]float64{1000.0}, []float64{0.0}, 0, 1e-9, 0, &Context{})
	assert.LessOrEqual(t, deriv, 50.0/1e-9+1e-6)
}

func TestInductorStateCurrentFormContributesRHS(t *testing.T) {
	l, err := NewInductor("L1", []string{"1", "0"}, 1e-3, StateCurrentForm)
	require.NoError(t, err)
	l.SetNodes([]int{0, -1})
	l.SetStateIndex(0)

	m := numeric.NewDense(1)
	require.NoError(t, l.UpdateRHS(m, []float64{2.0}, 0, &Context{}))
	assert.InDelta(t, -2.0, m.RHS()[0], 1e-12)
}

func TestDiodeOffStampsRoff(t *testing.T) {
	d, err := NewDefaultDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	m := numeric.NewDense(1)
	require.NoError(t, d.Stamp(m, &Context{}))
	assert.InDelta(t, 1.0/d.Roff, m.At(0, 0), 1e-12)
}

func TestDiodeOnStampsRonAndForwardDrop(t *testing.T) {
	d, err := NewDefaultDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})
	d.SetMode(DiodeOn)

	m := numeric.NewDense(1)
	require.NoError(t, d.Stamp(m, &Context{}))
	require.NoError(t, d.UpdateRHS(m, nil, 0, &Context{}))

	g := 1.0 / d.Ron
	assert.InDelta(t, g, m.At(0, 0), 1e-6)
	assert.InDelta(t, g*d.Vf, m.RHS()[0], 1e-6)
}

func TestDiodeZeroCrossingSignChangeAtForwardVoltage(t *testing.T) {
	d, err := NewDefaultDiode("D1", []string{"a", "0"})
	require.NoError(t, err)
	d.SetNodes([]int{0, -1})

	below := d.ZeroCrossing([]float64{0.5})
	above := d.ZeroCrossing([]float64{0.9})
	assert.Less(t, below, 0.0)
	assert.Greater(t, above, 0.0)
}

func TestSwitchSetValueTogglesMode(t *testing.T) {
	s, err := NewDefaultSwitch("S1", []string{"1", "0"})
	require.NoError(t, err)
	assert.Equal(t, SwitchOpen, s.Mode())

	s.SetValue(1)
	assert.Equal(t, SwitchClosed, s.Mode())

	s.SetValue(0)
	assert.Equal(t, SwitchOpen, s.Mode())
}

func TestVoltageSourceStampsIncidencePair(t *testing.T) {
	v, err := NewVoltageSource("V1", []string{"1", "0"}, waveform.NewDC(5))
	require.NoError(t, err)
	v.SetNodes([]int{0, -1})
	v.SetBranchIndex(1)

	m := numeric.NewDense(2)
	require.NoError(t, v.Stamp(m, &Context{}))
	require.NoError(t, v.UpdateRHS(m, nil, 0, &Context{}))

	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(1, 0))
	assert.Equal(t, 5.0, m.RHS()[1])
}

func TestCurrentSourceContributesOppositeSignsAtNodes(t *testing.T) {
	src, err := NewCurrentSource("I1", []string{"1", "0"}, waveform.NewDC(2))
	require.NoError(t, err)
	src.SetNodes([]int{0, -1})

	m := numeric.NewDense(1)
	require.NoError(t, src.UpdateRHS(m, nil, 0, &Context{}))
	assert.Equal(t, 2.0, m.RHS()[0])
}

func TestMOSFETRegionTransitions(t *testing.T) {
	q, err := NewMOSFET("Q1", []string{"g", "d", "s"}, 2.0, 0.5, 0.02)
	require.NoError(t, err)
	q.SetNodes([]int{0, 1, -1})

	q.Resolve([]float64{0.0, 5.0}) // Vgs=0 < Vth
	assert.Equal(t, MOSCutoff, q.Mode())

	q.Resolve([]float64{5.0, 0.1}) // Vgs high, Vds small -> linear
	assert.Equal(t, MOSLinear, q.Mode())

	q.Resolve([]float64{5.0, 10.0}) // Vgs high, Vds large -> saturation
	assert.Equal(t, MOSSaturation, q.Mode())
}

func TestCoupledInductorGroupRejectsTooFewMembers(t *testing.T) {
	l1, err := NewInductor("L1", []string{"1", "0"}, 1e-3, StateCurrentForm)
	require.NoError(t, err)
	_, err = NewCoupledInductorGroup("K1", []*Inductor{l1})
	require.Error(t, err)
}

func TestCoupledInductorGroupJointDerivativesMatchSelfInductanceWhenUncoupled(t *testing.T) {
	l1, err := NewInductor("L1", []string{"1", "0"}, 1e-3, StateCurrentForm)
	require.NoError(t, err)
	l1.SetNodes([]int{0, -1})
	l2, err := NewInductor("L2", []string{"2", "0"}, 1e-3, StateCurrentForm)
	require.NoError(t, err)
	l2.SetNodes([]int{1, -1})

	g, err := NewCoupledInductorGroup("K1", []*Inductor{l1, l2})
	require.NoError(t, err)

	derivs := g.JointDerivatives([]float64{5.0, 10.0})
	assert.InDelta(t, 5.0/1e-3, derivs[0], 1e-3)
	assert.InDelta(t, 10.0/1e-3, derivs[1], 1e-3)
}
