package mallet

import (
	"math"
	"testing"
)

func TestExciterImpulseIsOneSampleWide(t *testing.T) {
	e := NewExciter(48000)
	e.SetStiffness(0.5)
	e.Strike(1)
	e.Process()
	if e.amp != 0 {
		t.Fatalf("expected armed amplitude to be consumed after one sample, got %g", e.amp)
	}

	// The shaped response of a one-sample impulse equals the shaper's impulse response.
	ref := NewExciter(48000)
	ref.SetStiffness(0.5)
	want := ref.filter.Process(1)
	got := NewExciter(48000)
	got.SetStiffness(0.5)
	got.Strike(1)
	if y := got.Process(); y != want {
		t.Fatalf("first sample: got=%g want=%g", y, want)
	}
	for i := 0; i < 256; i++ {
		if a, b := got.Process(), ref.filter.Process(0); a != b {
			t.Fatalf("sample %d: got=%g want=%g", i+1, a, b)
		}
	}
}

func TestExciterRestrikeReplacesPendingImpulse(t *testing.T) {
	once := NewExciter(48000)
	once.SetStiffness(0.3)
	once.Strike(0.5)

	twice := NewExciter(48000)
	twice.SetStiffness(0.3)
	twice.Strike(1.0)
	twice.Strike(0.5)

	for i := 0; i < 128; i++ {
		if a, b := once.Process(), twice.Process(); a != b {
			t.Fatalf("sample %d: restrike should replace, not add: got=%g want=%g", i, b, a)
		}
	}
}

func TestExciterStiffnessCutoff(t *testing.T) {
	if got := StiffnessCutoff(0); got != 32 {
		t.Fatalf("stiffness 0: got=%g want=32", got)
	}
	want := 32 * math.Pow(10, 2.7)
	if got := StiffnessCutoff(1); math.Abs(got-want) > 1e-9 {
		t.Fatalf("stiffness 1: got=%g want=%g", got, want)
	}
}

func TestExciterCutoffClampedBelowNyquist(t *testing.T) {
	// At 8 kHz the unclamped cutoff for stiffness 1 (~16 kHz) is past Nyquist.
	e := NewExciter(8000)
	e.SetStiffness(1)
	e.Strike(1)
	for i := 0; i < 4096; i++ {
		y := e.Process()
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("non-finite exciter output at sample %d: %g", i, y)
		}
	}
	g, _, _ := e.filter.Coefficients()
	want := math.Tan(math.Pi * maxCutoffRatio)
	if math.Abs(g-want) > 1e-12 {
		t.Fatalf("expected clamped cutoff: g=%g want=%g", g, want)
	}
}
