// Package numeric provides the dense/sparse matrix and vector
// primitives and the direct/iterative linear solvers described in
// spec section 4.1: partial-pivot LU, Jacobi, Gauss-Seidel with SOR,
// and conjugate gradient, plus a cascading Solve that tries them in
// the order the spec requires.
package numeric

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nyquist-labs/spicekernel/internal/consts"
)

// Dense is the assembly-time conductance matrix and right-hand side,
// backed by gonum's mat.Dense. Every component Stamp call mutates it
// through AddElement/AddRHS; it is cleared and restamped once per
// transient step when nonlinear devices are present (spec section 4.4).
type Dense struct {
	n   int
	a   *mat.Dense
	rhs []float64
}

// NewDense allocates an n x n system (n already includes any
// auxiliary current-variable rows per spec section 4.3 item 2).
func NewDense(n int) *Dense {
	return &Dense{
		n:   n,
		a:   mat.NewDense(n, n, nil),
		rhs: make([]float64, n),
	}
}

func (d *Dense) Size() int { return d.n }

// AddElement accumulates value into G[i][j], 0-based. Out-of-range
// indices are silently ignored (ground node contributions are
// routinely skipped by callers using index -1 as "no row"; index 0 is
// the first real row).
func (d *Dense) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= d.n || j >= d.n {
		return
	}
	d.a.Set(i, j, d.a.At(i, j)+value)
}

func (d *Dense) AddRHS(i int, value float64) {
	if i < 0 || i >= d.n {
		return
	}
	d.rhs[i] += value
}

func (d *Dense) At(i, j int) float64 { return d.a.At(i, j) }

func (d *Dense) Diag(i int) float64 {
	if i < 0 || i >= d.n {
		return 0
	}
	return d.a.At(i, i)
}

// RHS returns the live right-hand-side slice (not a copy).
func (d *Dense) RHS() []float64 { return d.rhs }

// Clear zeroes the matrix and RHS in place so the same buffers can be
// reused every step without reallocating (spec section 5, resource policy).
func (d *Dense) Clear() {
	d.a.Zero()
	d.ClearRHS()
}

// ClearRHS zeroes only the right-hand side, leaving the conductance
// matrix untouched - the per-step reset of spec section 4.5 step 3,
// used when G itself is constant for the step (no nonlinear restamp).
func (d *Dense) ClearRHS() {
	for i := range d.rhs {
		d.rhs[i] = 0
	}
}

// LoadGmin adds a small regularizing conductance to every diagonal
// entry (spec section 3, "gmin").
func (d *Dense) LoadGmin(gmin float64) {
	for i := 0; i < d.n; i++ {
		d.a.Set(i, i, d.a.At(i, i)+gmin)
	}
}

// Snapshot returns a deep copy, used to save the linear-device-only
// matrix so the nonlinear/event layer can restamp from a clean base
// every step (spec section 4.4).
func (d *Dense) Snapshot() *Dense {
	cp := NewDense(d.n)
	cp.a.Copy(d.a)
	copy(cp.rhs, d.rhs)
	return cp
}

// CopyFrom overwrites the receiver's matrix and RHS with src's,
// without reallocating - the re-stamp-from-snapshot step of the event
// layer's per-step loop.
func (d *Dense) CopyFrom(src *Dense) {
	d.a.Copy(src.a)
	copy(d.rhs, src.rhs)
}

// MulVecTo implements gonum's linsolve.MulVecToer, so a Dense system
// can be solved by the conjugate-gradient method directly.
func (d *Dense) MulVecTo(dst *mat.VecDense, trans bool, x mat.Vector) {
	if trans {
		dst.MulVec(d.a.T(), x)
		return
	}
	dst.MulVec(d.a, x)
}

// RawMatrix exposes the backing gonum matrix for the direct LU path.
func (d *Dense) RawMatrix() *mat.Dense { return d.a }

// Symmetric reports whether the resistive sub-block is symmetric
// within tolerance (spec section 4.3 item 5 validation).
func (d *Dense) Symmetric(tol float64) bool {
	for i := 0; i < d.n; i++ {
		for j := i + 1; j < d.n; j++ {
			diff := d.a.At(i, j) - d.a.At(j, i)
			if diff < 0 {
				diff = -diff
			}
			if diff > tol {
				return false
			}
		}
	}
	return true
}

// HasDiagonalEntry reports whether row i has a nonzero diagonal,
// used for the "missing diagonal" preprocessor warning.
func (d *Dense) HasDiagonalEntry(i int) bool {
	return d.a.At(i, i) != 0
}

// DefaultGmin is the regularizer the preprocessor applies unless the
// caller overrides it.
const DefaultGmin = consts.Gmin
