package transient

// BDF2Coefficients computes the variable-step second-order backward
// differentiation coefficients of spec section 4.5:
// alpha = (1+2r)/(1+r), beta = -(1+r), gamma = r^2/(1+r), where
// r = h_n/h_{n-1}. These satisfy
// alpha*x_{n+1} + beta*x_n + gamma*x_{n-1} = h_n*f(x_{n+1})
// for a variable-step multistep solve.
//
// BDF2 is listed in spec section 9 as an optional integrator whose
// reference implementation was partially wired; this core exposes the
// coefficient formula as the wiring for a future implicit step, but
// RunTransient does not select it - ForwardEuler remains the default
// and the only integration rule driving the hot path today.
func BDF2Coefficients(r float64) (alpha, beta, gamma float64) {
	alpha = (1 + 2*r) / (1 + r)
	beta = -(1 + r)
	gamma = r * r / (1 + r)
	return alpha, beta, gamma
}
