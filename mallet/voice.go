package mallet

import dspcore "github.com/cwbudde/algo-dsp/dsp/core"

// Fundamentals are kept in this band so that any integer note yields finite
// filter coefficients.
const (
	minFundamental = 1e-3
	maxFundamental = 1e6
)

// Voice is one sounding note: an exciter driving a resonator tuned to the
// note's fundamental. It rings until it is evicted from the pool.
type Voice struct {
	note      int
	freq      float64
	exciter   *Exciter
	resonator *Resonator
}

// NewVoice creates a voice for note. Call SetParams before rendering.
func NewVoice(sampleRate, note int) *Voice {
	v := &Voice{
		exciter:   NewExciter(sampleRate),
		resonator: NewResonator(sampleRate),
	}
	v.assign(note)
	return v
}

// assign rebinds the voice to note and clears all signal state, making a
// recycled voice indistinguishable from a fresh one.
func (v *Voice) assign(note int) {
	v.note = note
	v.freq = dspcore.Clamp(NoteToFreq(note), minFundamental, maxFundamental)
	v.exciter.Reset()
	v.resonator.Reset()
}

// Note returns the MIDI note the voice plays.
func (v *Voice) Note() int {
	return v.note
}

// Freq returns the fundamental frequency in Hz, clamped to a finite band.
func (v *Voice) Freq() float64 {
	return v.freq
}

// SetParams applies synthesis parameters to the exciter and resonator.
func (v *Voice) SetParams(p SynthParams) {
	v.exciter.SetStiffness(p.Stiffness)
	v.resonator.SetParams(v.freq, p.Decay, p.Material, p.Position)
}

// Strike re-arms the exciter with amplitude velocity/127.
func (v *Voice) Strike(velocity int) {
	v.exciter.Strike(float64(velocity) / 127)
}

// Process renders one sample.
func (v *Voice) Process() float64 {
	return v.resonator.Process(v.exciter.Process())
}
