// Package prox implements the proximal operators used by the ADMM y-update
// of convolutional sparse coding.
//
// Coefficient arrays are laid out [batch][channel][filter][bin] ([Layout]).
// The penalty is the sparse-group norm
//
//	λ Σ w1[m]·|x|  +  μ Σ_groups w21[m]·‖x_group‖₂
//
// where a group collects the values that share (filter, bin) and one of the
// other two indices: the channel index for joint colour coding
// ([AxisChannel]) or the batch index for jointly coded signal sets
// ([AxisBatch]). Its proximal operator is the composition of elementwise
// soft thresholding and group shrinkage, see [SparseGroup].
//
// Group shrinkage is all-or-nothing: a group is either zeroed entirely or
// every entry is scaled by the same positive factor, so the support decision
// is shared across the group.
//
// The projectors [NonNegative] and [Mask] are applied after the proximal
// step when the solver restricts coefficients further.
package prox
