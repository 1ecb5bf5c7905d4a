package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// ModalFilter is a resonant two-pole filter tuned to a single vibrational
// mode. Retuning keeps the history so a ringing mode continues smoothly.
type ModalFilter struct {
	limit float64
	fs    float64

	a0, a1, a2 float64
	d          float64

	xnm1 float64
	ynm1 float64
	ynm2 float64
}

// NewModalFilter creates an untuned filter; it outputs silence until SetParams.
func NewModalFilter(sampleRate int) *ModalFilter {
	fs := float64(sampleRate)
	return &ModalFilter{
		fs:    fs,
		limit: fs * (1/math.Pi - 0.01),
	}
}

// SetParams tunes the filter to freqHz with quality factor q. Frequencies
// above the stability ceiling are silently pulled down to it.
func (m *ModalFilter) SetParams(freqHz, q float64) {
	fq := math.Min(freqHz, m.limit)
	alpha := m.fs / (fq * 2 * math.Pi)
	beta := alpha * alpha
	m.d = 0.5 * alpha
	m.a0 = 1 / (beta + m.d/q)
	m.a1 = m.a0 * (1 - 2*beta)
	m.a2 = m.a0 * (beta - m.d/q)
}

// Coefficients returns (a0, a1, a2, d).
func (m *ModalFilter) Coefficients() (a0, a1, a2, d float64) {
	return m.a0, m.a1, m.a2, m.d
}

// Limit returns the highest frequency the filter can be tuned to.
func (m *ModalFilter) Limit() float64 {
	return m.limit
}

// Process runs one sample through the mode.
func (m *ModalFilter) Process(x float64) float64 {
	yn := m.a0*m.xnm1 - m.a1*m.ynm1 - m.a2*m.ynm2
	yn = dspcore.FlushDenormals(yn)
	m.xnm1 = x
	m.ynm2 = m.ynm1
	m.ynm1 = yn
	return yn * m.d
}

// Reset clears the input and output history.
func (m *ModalFilter) Reset() {
	m.xnm1, m.ynm1, m.ynm2 = 0, 0, 0
}
