package mallet

import (
	"math"
	"testing"
)

func TestVoiceDerivesFundamental(t *testing.T) {
	v := NewVoice(48000, 81)
	if v.Note() != 81 {
		t.Fatalf("note: got=%d want=81", v.Note())
	}
	if math.Abs(v.Freq()-880) > 1e-9 {
		t.Fatalf("freq: got=%g want=880", v.Freq())
	}
}

func TestVoiceClampsFundamental(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{note: 13000, want: maxFundamental},
		{note: -7000, want: minFundamental},
	}
	for _, tt := range tests {
		v := NewVoice(48000, tt.note)
		if v.Note() != tt.note {
			t.Fatalf("note: got=%d want=%d", v.Note(), tt.note)
		}
		if v.Freq() != tt.want {
			t.Fatalf("note %d freq: got=%g want=%g", tt.note, v.Freq(), tt.want)
		}
	}
}

func TestVoiceForwardsParams(t *testing.T) {
	v := NewVoice(48000, 57)
	p := SynthParams{VoiceLimit: 4, Stiffness: 0.7, Decay: 0.3, Material: 0.9, Position: 0.1}
	v.SetParams(p)

	r := NewResonator(48000)
	r.SetParams(220, 0.3, 0.9, 0.1)
	if v.resonator.freqs != r.freqs || v.resonator.qs != r.qs || v.resonator.amplitudes != r.amplitudes {
		t.Fatalf("resonator not tuned from voice frequency and params")
	}

	e := NewExciter(48000)
	e.SetStiffness(0.7)
	g1, _, _ := v.exciter.filter.Coefficients()
	g2, _, _ := e.filter.Coefficients()
	if g1 != g2 {
		t.Fatalf("exciter stiffness not forwarded: got g=%g want g=%g", g1, g2)
	}
}

func TestVoiceStrikeNormalizesVelocity(t *testing.T) {
	v := NewVoice(48000, 60)
	v.Strike(127)
	if v.exciter.amp != 1 {
		t.Fatalf("velocity 127: got amp=%g want=1", v.exciter.amp)
	}
	v.Strike(0)
	if v.exciter.amp != 0 {
		t.Fatalf("velocity 0: got amp=%g want=0", v.exciter.amp)
	}
}

func TestVoiceRingsAfterStrike(t *testing.T) {
	v := NewVoice(48000, 69)
	v.SetParams(DefaultParams())
	v.Strike(100)

	var peak float64
	for i := 0; i < 4800; i++ {
		y := v.Process()
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("non-finite sample %d", i)
		}
		peak = math.Max(peak, math.Abs(y))
	}
	if peak == 0 {
		t.Fatalf("expected a struck voice to produce sound")
	}
}

func TestVoiceAssignResetsState(t *testing.T) {
	v := NewVoice(48000, 60)
	v.SetParams(DefaultParams())
	v.Strike(127)
	for i := 0; i < 100; i++ {
		v.Process()
	}
	v.assign(72)
	v.SetParams(DefaultParams())
	for i := 0; i < 100; i++ {
		if y := v.Process(); y != 0 {
			t.Fatalf("expected reassigned voice to be silent until struck, got %g at %d", y, i)
		}
	}
}
