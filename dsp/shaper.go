package dsp

import "math"

// LowpassShaper is a 2-pole state-variable lowpass (trapezoidal integrators)
// used to shape a single impulse into a mallet strike transient.
type LowpassShaper struct {
	sampleRate float64

	g, r, h float64

	state1 float64
	state2 float64
}

// NewLowpassShaper creates a shaper with cleared state and zero cutoff.
func NewLowpassShaper(sampleRate int) *LowpassShaper {
	return &LowpassShaper{sampleRate: float64(sampleRate)}
}

// SetCutoff recomputes the coefficients from a cutoff in Hz and a resonance.
// State is kept.
func (s *LowpassShaper) SetCutoff(freqHz, resonance float64) {
	s.g = math.Tan(math.Pi * freqHz / s.sampleRate)
	s.r = 1 / resonance
	s.h = 1 / (1 + s.r*s.g + s.g*s.g)
}

// Coefficients returns (g, r, h).
func (s *LowpassShaper) Coefficients() (g, r, h float64) {
	return s.g, s.r, s.h
}

// Process advances the filter by one sample and returns the lowpass output.
func (s *LowpassShaper) Process(x float64) float64 {
	hp := (x - s.r*s.state1 - s.g*s.state1 - s.state2) * s.h
	bp := s.g*hp + s.state1
	s.state1 = s.g*hp + bp
	lp := s.g*bp + s.state2
	s.state2 = s.g*bp + lp
	return lp
}

// Reset clears the integrator state.
func (s *LowpassShaper) Reset() {
	s.state1, s.state2 = 0, 0
}
