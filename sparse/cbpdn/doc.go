// Package cbpdn solves the joint-channel convolutional basis pursuit
// denoising problem
//
//	argmin_x ½‖Σ_m d_m * x_m − s‖² + λ Σ_m ‖x_m‖₁ + μ Σ_m ‖x_m‖₂,₁
//
// for a batch of multi-channel signals s (for example colour images) and a
// dictionary of filters d_m. The ℓ2,1 term couples the coefficient maps of
// one filter across channels (or across the batch), favouring a common
// sparsity pattern.
//
// The problem is split with ADMM (package admm). The x-update is solved per
// frequency bin (package linsolve) after an N-dimensional FFT (package
// fftn); the y-update is the sparse-group proximal operator (package prox).
//
// # Dictionaries
//
// A 1-channel dictionary is shared by all signal channels; each channel then
// gets its own coefficient maps. A C-channel dictionary with C equal to the
// signal channel count describes colour filters; one coefficient map per
// filter then synthesizes every channel.
//
// # Usage
//
//	dict, _ := cbpdn.NewDictionary(filters, m, 1, []int{8, 8})
//	sig, _ := cbpdn.NewSignal(pixels, 1, 3, []int{rows, cols})
//	s, _ := cbpdn.New(dict, sig, 0.1, 0.1, cbpdn.WithMaxIter(200))
//	res, err := s.Solve(ctx)
//	rec, _ := s.Reconstruct(res.Coef)
//
// A Solver is not safe for concurrent use.
package cbpdn
