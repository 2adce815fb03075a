package numeric

import (
	"gonum.org/v1/gonum/linsolve"
	"gonum.org/v1/gonum/mat"

	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// ConjugateGradient solves G*v = rhs with gonum's linsolve.CG. It is
// the third primitive spec section 4.1 lists ("Jacobi, Gauss-Seidel,
// and conjugate-gradient") but is not part of the default
// Jacobi->Gauss-Seidel->LU cascade: symmetric resistive sub-networks
// (no controlled sources, no voltage-source branch rows) are the only
// case where it is guaranteed applicable, so callers opt in
// explicitly via SolveWith(MethodCG, ...).
func ConjugateGradient(d *Dense, x0 []float64, maxIter int, tol float64) (x []float64, iterations int, err error) {
	if maxIter <= 0 {
		maxIter = consts.IterMaxIterations
	}
	if tol <= 0 {
		tol = consts.IterResidualTol
	}

	n := d.n
	b := mat.NewVecDense(n, append([]float64(nil), d.rhs...))
	init := mat.NewVecDense(n, append([]float64(nil), x0...))
	dst := mat.NewVecDense(n, nil)

	settings := &linsolve.Settings{
		InitX:         init,
		Dst:           dst,
		Tolerance:     tol,
		MaxIterations: maxIter,
	}

	result, err := linsolve.Iterative(d, b, &linsolve.CG{}, settings)
	if err != nil {
		return nil, 0, spiceerr.Wrap(spiceerr.DidNotConverge, err, "conjugate gradient failed to converge")
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = result.X.AtVec(i)
	}
	return out, result.Stats.Iterations, nil
}
