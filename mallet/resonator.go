package mallet

import (
	"math"

	"github.com/cwbudde/algo-mallet/dsp"
)

// NumModes is the number of modal filters per resonator.
const NumModes = 6

// Overtone ratios of a xylophone bar relative to its fundamental.
var modalRatios = [NumModes]float64{1, 3.932, 9.538, 16.688, 24.566, 31.147}

// ModalRatios returns the fixed mode frequency ratios.
func ModalRatios() [NumModes]float64 {
	return modalRatios
}

// Resonator is a fixed bank of modal filters tuned to ratios of a
// fundamental, each weighted by a pickup-position amplitude.
type Resonator struct {
	sampleRate float64
	filters    [NumModes]*dsp.ModalFilter
	amplitudes [NumModes]float64
	freqs      [NumModes]float64
	qs         [NumModes]float64
}

// NewResonator creates an untuned resonator with unit mode amplitudes.
func NewResonator(sampleRate int) *Resonator {
	r := &Resonator{sampleRate: float64(sampleRate)}
	for i := range r.filters {
		r.filters[i] = dsp.NewModalFilter(sampleRate)
		r.amplitudes[i] = 1
	}
	return r
}

// BaseQ returns the quality factor of the fundamental mode for decay in [0,1].
func BaseQ(decay float64) float64 {
	return 5 * math.Pow(10, 4*0.8*decay)
}

// QLoss returns the per-mode multiplicative Q factor for material in [0,1].
func QLoss(material float64) float64 {
	return material*(2-material)*0.85 + 0.15
}

// SetParams retunes all modes. Filter history is kept.
func (r *Resonator) SetParams(baseFreq, decay, material, position float64) {
	q := BaseQ(decay)
	qLoss := QLoss(material)
	nyquist := r.sampleRate / 2

	for i, ratio := range modalRatios {
		freq := ratio * baseFreq
		if math.IsNaN(freq) || math.IsInf(freq, 0) {
			freq = nyquist
		}
		for freq > nyquist {
			freq /= 2
		}
		r.filters[i].SetParams(freq, q)
		r.freqs[i] = freq
		r.qs[i] = q
		q *= qLoss

		k := math.Round(ratio - 1)
		r.amplitudes[i] = (1 + math.Cos(2*math.Pi*position*k)) / 2
	}
}

// Process feeds x into every mode and returns the weighted sum.
func (r *Resonator) Process(x float64) float64 {
	var y float64
	for i, f := range r.filters {
		y += r.amplitudes[i] * f.Process(x)
	}
	return y
}

// Reset clears every mode's history.
func (r *Resonator) Reset() {
	for _, f := range r.filters {
		f.Reset()
	}
}
