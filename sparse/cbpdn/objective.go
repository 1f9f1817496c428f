package cbpdn

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-sparse/internal/scratch"
	"github.com/cwbudde/algo-sparse/sparse/admm"
	"github.com/cwbudde/algo-sparse/sparse/prox"
)

var (
	realScratch    = scratch.NewPool[float64]()
	complexScratch = scratch.NewPool[complex128]()
)

// Objective evaluates the functional at X, or at Y with AuxVarObj. The data
// fidelity term is computed from spectra via Parseval's theorem.
func (s *Solver) Objective() (admm.Objective, error) {
	coef, spec := s.x, s.xf
	if s.opts.AuxVarObj {
		if err := s.tf.ForwardBatch(s.work, s.y); err != nil {
			return admm.Objective{}, err
		}

		coef, spec = s.y, s.work
	}

	dfid, err := s.dataFidelity(spec)
	if err != nil {
		return admm.Objective{}, err
	}

	l1 := s.weightedL1(coef)
	l21 := s.weightedL21(coef)

	return admm.Objective{
		ObjFun:     dfid + s.lambda*l1 + s.mu*l21,
		DFid:       dfid,
		RegL1:      l1,
		RegL21:     l21,
		XSlvRelRes: s.xSlvRelRes,
	}, nil
}

// dataFidelity returns ½‖D x − s‖² for coefficient spectra spec.
func (s *Solver) dataFidelity(spec []complex128) (float64, error) {
	n := len(s.sf)

	rb := complexScratch.Get(n)
	defer complexScratch.Put(rb)

	resid := *rb

	ld := s.lin.Dictionary()
	for st := range s.stacks {
		if err := ld.Apply(s.signalStack(resid, st), s.stack(spec, st)); err != nil {
			return 0, err
		}
	}

	reb, imb, powb := realScratch.Get(n), realScratch.Get(n), realScratch.Get(n)
	defer func() {
		realScratch.Put(reb)
		realScratch.Put(imb)
		realScratch.Put(powb)
	}()

	re, im, pow := *reb, *imb, *powb

	for i, v := range resid {
		d := v - s.sf[i]
		re[i] = real(d)
		im[i] = imag(d)
	}

	vecmath.Power(pow, re, im)

	return 0.5 * floats.Sum(pow) / float64(s.tf.Len()), nil
}

func (s *Solver) weightedL1(coef []float64) float64 {
	l := s.layout

	var sum float64
	for plane := range l.Len() / l.Bins {
		w := weightOf(s.opts.L1Weight, plane%l.Filters)
		if w == 0 {
			continue
		}

		sum += w * floats.Norm(coef[plane*l.Bins:(plane+1)*l.Bins], 1)
	}

	return sum
}

func (s *Solver) weightedL21(coef []float64) float64 {
	axis := s.opts.Grouping.axis()
	if axis == prox.AxisNone {
		return 0
	}

	l := s.layout
	g := l.Groups(axis)

	var sum float64
	for k := range g.Count() {
		base := g.Base(k)

		var sq float64
		for j := range g.Size {
			v := coef[base+j*g.Inner]
			sq += v * v
		}

		sum += weightOf(s.opts.L21Weight, l.Filter(base)) * math.Sqrt(sq)
	}

	return sum
}

func weightOf(w []float64, m int) float64 {
	if len(w) == 0 {
		return 1
	}

	return w[m]
}
