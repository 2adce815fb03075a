package numeric

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Method names one of the linear solvers.
type Method int

const (
	MethodJacobi Method = iota
	MethodGaussSeidel
	MethodLU
	MethodCG
)

func (m Method) String() string {
	switch m {
	case MethodJacobi:
		return "jacobi"
	case MethodGaussSeidel:
		return "gauss-seidel"
	case MethodLU:
		return "lu"
	case MethodCG:
		return "cg"
	default:
		return "unknown"
	}
}

// Result reports which method actually produced the solution and how
// many iterations it took (1 for the direct solver).
type Result struct {
	Solution   []float64
	Method     Method
	Iterations int
}

// Solve runs the cascade spec section 4.1 mandates: Jacobi, then
// Gauss-Seidel, then the direct LU solver, surfacing the final error
// only if all three fail. x0 is the initial guess (typically the
// previous step's solution); a nil x0 starts from zero.
func Solve(d *Dense, x0 []float64) (Result, error) {
	if x0 == nil {
		x0 = make([]float64, d.n)
	}

	if sol, iters, err := Jacobi(d, x0, consts.IterMaxIterations, consts.IterResidualTol); err == nil {
		return Result{Solution: sol, Method: MethodJacobi, Iterations: iters}, nil
	}

	if sol, iters, err := GaussSeidel(d, x0, consts.IterMaxIterations, consts.IterResidualTol); err == nil {
		return Result{Solution: sol, Method: MethodGaussSeidel, Iterations: iters}, nil
	}

	lu, err := NewSparseLU(d)
	if err != nil {
		return Result{}, err
	}
	defer lu.Destroy()

	sol, err := lu.Solve(d.rhs)
	if err != nil {
		return Result{}, spiceerr.Wrap(spiceerr.SingularMatrix, err, "all solver fallbacks exhausted")
	}

	return Result{Solution: sol, Method: MethodLU, Iterations: 1}, nil
}

// SolveWith runs a single named method directly, bypassing the
// cascade - used by callers that know their system's shape (e.g. a
// symmetric resistive-only sub-network suited to conjugate gradient).
func SolveWith(method Method, d *Dense, x0 []float64) (Result, error) {
	if x0 == nil {
		x0 = make([]float64, d.n)
	}

	switch method {
	case MethodJacobi:
		sol, iters, err := Jacobi(d, x0, consts.IterMaxIterations, consts.IterResidualTol)
		if err != nil {
			return Result{}, err
		}
		return Result{Solution: sol, Method: MethodJacobi, Iterations: iters}, nil

	case MethodGaussSeidel:
		sol, iters, err := GaussSeidel(d, x0, consts.IterMaxIterations, consts.IterResidualTol)
		if err != nil {
			return Result{}, err
		}
		return Result{Solution: sol, Method: MethodGaussSeidel, Iterations: iters}, nil

	case MethodCG:
		sol, iters, err := ConjugateGradient(d, x0, consts.IterMaxIterations, consts.IterResidualTol)
		if err != nil {
			return Result{}, err
		}
		return Result{Solution: sol, Method: MethodCG, Iterations: iters}, nil

	case MethodLU:
		lu, err := NewSparseLU(d)
		if err != nil {
			return Result{}, err
		}
		defer lu.Destroy()
		sol, err := lu.Solve(d.rhs)
		if err != nil {
			return Result{}, err
		}
		return Result{Solution: sol, Method: MethodLU, Iterations: 1}, nil

	default:
		return Result{}, spiceerr.New(spiceerr.Unsupported, "unknown solver method %v", method)
	}
}
