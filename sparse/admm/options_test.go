package admm

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultOptionsValid(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("DefaultOptions().Validate() = %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero max iter", func(o *Options) { o.MaxIter = 0 }},
		{"negative rel tol", func(o *Options) { o.RelStopTol = -1 }},
		{"nan abs tol", func(o *Options) { o.AbsStopTol = math.NaN() }},
		{"both tolerances zero", func(o *Options) { o.RelStopTol, o.AbsStopTol = 0, 0 }},
		{"negative rho", func(o *Options) { o.Rho = -1 }},
		{"inverted rho limits", func(o *Options) { o.RhoMin, o.RhoMax = 10, 1 }},
		{"zero rho min", func(o *Options) { o.RhoMin = 0 }},
		{"relax zero", func(o *Options) { o.RelaxParam = 0 }},
		{"relax two", func(o *Options) { o.RelaxParam = 2 }},
		{"zero epsilon", func(o *Options) { o.Epsilon = 0 }},
		{"unknown verbosity", func(o *Options) { o.Verbosity = 7 }},
		{"negative timeout", func(o *Options) { o.Timeout = -1 }},
		{"zero period", func(o *Options) { o.AutoRho.Period = 0 }},
		{"scaling below one", func(o *Options) { o.AutoRho.Scaling = 0.5 }},
		{"ratio below one", func(o *Options) { o.AutoRho.RsdlRatio = 0.9 }},
		{"negative target", func(o *Options) { o.AutoRho.RsdlTarget = -2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultOptions()
			tc.mutate(&o)

			if err := o.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Validate() = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestOptionsAutoRhoIgnoredWhenDisabled(t *testing.T) {
	o := DefaultOptions()
	o.AutoRho = AutoRhoOptions{Enabled: false}

	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestVerbosityText(t *testing.T) {
	for _, v := range []Verbosity{VerbosityQuiet, VerbosityStats, VerbosityTrace} {
		text, err := v.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", v, err)
		}

		var got Verbosity
		if err := got.UnmarshalText(text); err != nil || got != v {
			t.Fatalf("UnmarshalText(%q) = %v, %v", text, got, err)
		}
	}

	var v Verbosity
	if err := v.UnmarshalText([]byte("loud")); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("UnmarshalText(loud) = %v", err)
	}
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
		name     string
	}{
		{StateInitialized, false, "INITIALIZED"},
		{StateIterating, false, "ITERATING"},
		{StateConverged, true, "CONVERGED"},
		{StateMaxIterReached, true, "MAX-ITER-REACHED"},
		{StateTimeLimit, true, "TIME-LIMIT-REACHED"},
		{StateFailed, true, "FAILED"},
	}

	for _, tc := range tests {
		if tc.state.Terminal() != tc.terminal || tc.state.String() != tc.name {
			t.Errorf("%v: Terminal=%v String=%q", tc.state, tc.state.Terminal(), tc.state.String())
		}
	}
}
