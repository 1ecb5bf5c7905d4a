package fitcommon

import (
	"math"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"

	"github.com/cwbudde/algo-mallet/mallet"
)

// RenderOptions controls how long an offline render runs. With DecayDBFS
// set (not +Inf) rendering stops once HoldBlocks consecutive blocks fall
// below that level, never before MinDuration nor after MaxDuration.
// Otherwise exactly Duration seconds are rendered.
type RenderOptions struct {
	SampleRate  int
	BlockSize   int
	Duration    float64
	DecayDBFS   float64
	HoldBlocks  int
	MinDuration float64
	MaxDuration float64
}

// DefaultRenderOptions renders 2 s at 48 kHz without auto-stop.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		SampleRate:  48000,
		BlockSize:   128,
		Duration:    2.0,
		DecayDBFS:   math.Inf(1),
		HoldBlocks:  6,
		MinDuration: 0.5,
		MaxDuration: 20.0,
	}
}

// AutoStop reports whether the decay threshold is enabled.
func (o RenderOptions) AutoStop() bool {
	return !math.IsInf(o.DecayDBFS, 1) && !math.IsNaN(o.DecayDBFS)
}

// Render drives e block by block until opts says stop.
func Render(e *mallet.Engine, opts RenderOptions) []float32 {
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 128
	}
	sr := float64(e.SampleRate())
	if !opts.AutoStop() {
		total := max(int(sr*opts.Duration), 1)
		out := make([]float32, total)
		for start := 0; start < total; start += blockSize {
			e.ProcessInto(out[start:min(start+blockSize, total)])
		}
		return out
	}

	minFrames := int(sr * opts.MinDuration)
	maxFrames := max(int(sr*opts.MaxDuration), minFrames, blockSize)
	hold := max(opts.HoldBlocks, 1)
	threshold := DBToGain(opts.DecayDBFS)

	out := make([]float32, 0, max(minFrames, blockSize))
	block := make([]float32, blockSize)
	wide := make([]float64, blockSize)
	below := 0
	for len(out) < maxFrames {
		n := min(blockSize, maxFrames-len(out))
		e.ProcessInto(block[:n])
		out = append(out, block[:n]...)
		if len(out) < minFrames {
			continue
		}
		for i, v := range block[:n] {
			wide[i] = float64(v)
		}
		if dsptime.RMS(wide[:n]) < threshold {
			below++
			if below >= hold {
				break
			}
		} else {
			below = 0
		}
	}
	return out
}

// RenderStrike renders a single strike of note with params.
func RenderStrike(params mallet.SynthParams, note, velocity int, opts RenderOptions) ([]float32, error) {
	e, err := mallet.NewEngine(opts.SampleRate, mallet.WithParams(params))
	if err != nil {
		return nil, err
	}
	e.Apply(mallet.NoteOnMessage(note, velocity))
	return Render(e, opts), nil
}
