// Package fftn implements multi-dimensional discrete Fourier transforms over
// the spatial axes of row-major arrays.
//
// A [Transform] is built for a fixed shape and applies one 1-D plan per axis,
// gathering each axis line into a small buffer, so no transposes or
// temporary copies of the whole array are needed:
//
//	tr, err := fftn.New([]int{rows, cols})
//	err = tr.ForwardReal(spec, image)   // image: rows*cols samples
//	err = tr.InverseReal(image, spec)
//
// The forward transform is unnormalized and the inverse divides by [Transform.Len],
// so Inverse(Forward(a)) reproduces a up to rounding. Parseval's relation
// reads sum|a|^2 = sum|A|^2 / Len.
//
// Several arrays of the same shape stored back to back ("fields") can be
// transformed in one call with [Transform.ForwardBatch] and
// [Transform.InverseRealBatch].
//
// [Pad] and [Crop] move data between a small array and the front corner of
// a larger zero-padded array, which is how filters are embedded on the
// transform grid and how padded reconstructions are cut back to the signal
// extent.
//
// A Transform owns plan scratch memory and is not safe for concurrent use.
package fftn
