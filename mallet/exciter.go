package mallet

import (
	"math"

	"github.com/cwbudde/algo-mallet/dsp"
)

const (
	shaperResonance = 0.5
	// Highest exciter cutoff as a fraction of the sample rate; keeps tan() finite.
	maxCutoffRatio = 0.49
)

// Exciter turns a strike into a one-sample impulse shaped by a lowpass,
// approximating the contact transient of a mallet.
type Exciter struct {
	sampleRate float64
	filter     *dsp.LowpassShaper
	amp        float64
}

// NewExciter creates an exciter with no armed strike.
func NewExciter(sampleRate int) *Exciter {
	return &Exciter{
		sampleRate: float64(sampleRate),
		filter:     dsp.NewLowpassShaper(sampleRate),
	}
}

// StiffnessCutoff maps stiffness in [0,1] to the shaper cutoff in Hz.
func StiffnessCutoff(stiffness float64) float64 {
	return 32 * math.Pow(10, 2.7*stiffness)
}

// SetStiffness retunes the strike transient; harder mallets are brighter.
func (e *Exciter) SetStiffness(stiffness float64) {
	freq := StiffnessCutoff(stiffness)
	if limit := maxCutoffRatio * e.sampleRate; freq > limit {
		freq = limit
	}
	e.filter.SetCutoff(freq, shaperResonance)
}

// Strike arms a one-shot impulse. A new strike replaces any pending one.
func (e *Exciter) Strike(amp float64) {
	e.amp = amp
}

// Process emits the next shaped sample and consumes the armed impulse.
func (e *Exciter) Process() float64 {
	y := e.filter.Process(e.amp)
	e.amp = 0
	return y
}

// Reset drops any armed impulse and clears the shaper state.
func (e *Exciter) Reset() {
	e.amp = 0
	e.filter.Reset()
}
