package device

import (
	"math"

	"github.com/nyquist-labs/spicekernel/pkg/numeric"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// CoupledInductorGroup is a set of inductors plus a symmetric
// coupling-coefficient matrix, per spec section 4.2. Design note
// "cycles in ownership": rather than each inductor holding pointers to
// its coupled peers (the cyclic-reference shape the reference uses),
// the group owns indices into its own member slice and the inductors
// stay otherwise unaware of each other.
//
// Members must use StateCurrentForm: the group computes their joint
// current derivatives by solving the small dense system
// V = L_self*dI/dt + sum_j M_ij*dI_j/dt, and the transient integrator
// calls JointDerivatives instead of each member's individual
// UpdateState.
type CoupledInductorGroup struct {
	BaseDevice
	members []*Inductor
	k       [][]float64 // symmetric coupling coefficients, k[i][j] == k[j][i], k[i][i] unused
}

func NewCoupledInductorGroup(name string, members []*Inductor) (*CoupledInductorGroup, error) {
	if len(members) < 2 {
		return nil, spiceerr.New(spiceerr.InvalidComponent, "coupled inductor group %s: requires at least two inductors, got %d", name, len(members))
	}
	for _, m := range members {
		if m.Form != StateCurrentForm {
			return nil, spiceerr.New(spiceerr.InvalidComponent, "coupled inductor group %s: member %s must use StateCurrentForm", name, m.Name())
		}
	}
	n := len(members)
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, n)
	}
	return &CoupledInductorGroup{
		BaseDevice: NewBaseDevice(name, 0, nil),
		members:    members,
		k:          k,
	}, nil
}

// SetCoupling records k_ij between member indices i and j.
func (g *CoupledInductorGroup) SetCoupling(i, j int, k float64) error {
	n := len(g.members)
	if i < 0 || j < 0 || i >= n || j >= n || i == j {
		return spiceerr.New(spiceerr.InvalidComponent, "coupled inductor group %s: invalid member pair (%d,%d)", g.Name(), i, j)
	}
	g.k[i][j] = k
	g.k[j][i] = k
	return nil
}

func (g *CoupledInductorGroup) Kind() Kind                 { return KindCoupledInductors }
func (g *CoupledInductorGroup) NeedsCurrentVariable() bool { return false }

// Stamp and UpdateRHS are no-ops: each member inductor already
// contributes its own self-inductance current source; the group only
// modifies how derivatives are computed, not the linear system itself.
func (g *CoupledInductorGroup) Stamp(m *numeric.Dense, ctx *Context) error { return nil }

func (g *CoupledInductorGroup) UpdateRHS(m *numeric.Dense, x []float64, t float64, ctx *Context) error {
	return nil
}

// Members exposes the group's inductors in order, for the transient
// integrator to look up their state-vector slots.
func (g *CoupledInductorGroup) Members() []*Inductor { return g.members }

// MemberIndex returns l's position among the group's members, or -1 if
// l does not belong to this group.
func (g *CoupledInductorGroup) MemberIndex(l *Inductor) int {
	for i, m := range g.members {
		if m == l {
			return i
		}
	}
	return -1
}

// mutualInductance returns M_ij = k_ij * sqrt(L_i * L_j).
func (g *CoupledInductorGroup) mutualInductance(i, j int) float64 {
	return g.k[i][j] * math.Sqrt(g.members[i].Value*g.members[j].Value)
}

// JointDerivatives solves the coupled system for dI/dt of every
// member given the freshly solved node voltages, replacing each
// member's independent V/L derivative with the mutual-inductance-aware
// joint solve.
func (g *CoupledInductorGroup) JointDerivatives(nodeVoltages []float64) []float64 {
	n := len(g.members)
	lhs := numeric.NewDense(n)
	for i, m := range g.members {
		lhs.AddElement(i, i, m.Value)
		for j := i + 1; j < n; j++ {
			mij := g.mutualInductance(i, j)
			lhs.AddElement(i, j, mij)
			lhs.AddElement(j, i, mij)
		}
		lhs.AddRHS(i, m.Voltage(nodeVoltages))
	}

	result, err := numeric.Solve(lhs, nil)
	if err != nil {
		// Fall back to decoupled self-inductance derivatives when the
		// coupling system is singular (e.g. two members with k=1).
		// With all k=0 the system is diagonal, the solve succeeds and
		// already yields the independent V/L values.
		out := make([]float64, n)
		for i, m := range g.members {
			out[i] = m.Voltage(nodeVoltages) / m.Value
		}
		return out
	}
	return result.Solution
}
