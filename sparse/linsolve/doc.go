// Package linsolve solves the x-update normal equations of convolutional
// sparse coding independently at every frequency bin.
//
// In the frequency domain a convolutional dictionary with M filters and C
// channel planes becomes, at bin n, a small C×M matrix D(n). The ADMM x-update
// minimizes
//
//	½‖D x − s‖² + ρ/2 ‖x − z‖²
//
// whose normal equations (DᴴD + ρI) x = Dᴴs + ρz are M×M per bin. Because
// C is much smaller than M the solve uses the low-rank structure instead of
// inverting DᴴD + ρI:
//
//   - C = 1 (one dictionary shared by every signal channel): Sherman–Morrison,
//     x = (r − a·(aᴴr)/(ρ + aᴴa)) / ρ with a = conj(D). The cache is one real
//     gain per bin.
//   - C > 1 (multi-channel dictionary, channels coupled by the fit term):
//     Woodbury, x = (r − Dᴴ (ρI + DDᴴ)⁻¹ D r) / ρ. The cache is a Cholesky
//     factor of the C×C Hermitian system per bin.
//
// The cache depends on ρ only. [Solver.Prepare] takes a generation number
// alongside ρ and rebuilds only when the generation changes, so the owner of
// ρ can invalidate the cache with a single counter increment.
//
// Bins are independent; every bulk operation is split across workers by bin
// range with no shared mutable state.
package linsolve
