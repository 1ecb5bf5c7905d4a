package dsp

import (
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"
)

// OutputStage applies master gain followed by a peak limiter to rendered
// blocks. Summed voices are not normalized, so a chord at full velocity can
// exceed full scale without it.
type OutputStage struct {
	gain    float64
	limiter *dynamics.LookaheadLimiter
	latency int
}

// NewOutputStage creates a stage with gainDB of master gain and a limiter
// ceiling at ceilingDB (-24..0). A ceiling of 0 or above disables the
// limiter. The limiter delays the signal by lookaheadMs.
func NewOutputStage(sampleRate int, gainDB, ceilingDB, lookaheadMs float64) (*OutputStage, error) {
	s := &OutputStage{gain: dspcore.DBToLinear(gainDB)}
	if ceilingDB >= 0 {
		return s, nil
	}
	lim, err := dynamics.NewLookaheadLimiter(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("limiter: %w", err)
	}
	if err := lim.SetThreshold(ceilingDB); err != nil {
		return nil, fmt.Errorf("limiter threshold: %w", err)
	}
	if err := lim.SetRelease(50); err != nil {
		return nil, fmt.Errorf("limiter release: %w", err)
	}
	if err := lim.SetLookahead(lookaheadMs); err != nil {
		return nil, fmt.Errorf("limiter lookahead: %w", err)
	}
	s.limiter = lim
	s.latency = int(math.Round(lookaheadMs * float64(sampleRate) / 1000))
	return s, nil
}

// Gain returns the linear master gain.
func (s *OutputStage) Gain() float64 {
	return s.gain
}

// Process applies the stage to block in place.
func (s *OutputStage) Process(block []float32) {
	for i, v := range block {
		x := float64(v) * s.gain
		if s.limiter != nil {
			x = s.limiter.ProcessSample(x)
		}
		block[i] = float32(x)
	}
}

// Latency returns the delay the stage adds, in frames.
func (s *OutputStage) Latency() int {
	return s.latency
}

// ProcessAligned runs a complete offline render through the stage and
// compensates the limiter delay: the result has the same length as samples
// and its onset is not shifted.
func (s *OutputStage) ProcessAligned(samples []float32) []float32 {
	out := make([]float32, len(samples)+s.latency)
	copy(out, samples)
	s.Process(out)
	return out[s.latency:]
}
