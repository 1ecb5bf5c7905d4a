package mallet

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// MaxVoices is the size of the voice arena and the ceiling for VoiceLimit.
const MaxVoices = 64

// SynthParams holds the process-wide synthesis parameters. The zero value is
// valid but silent (VoiceLimit 0).
type SynthParams struct {
	VoiceLimit int     `json:"voices"`
	Stiffness  float64 `json:"stiffness"`
	Decay      float64 `json:"decay"`
	Material   float64 `json:"material"`
	Position   float64 `json:"position"`
}

// DefaultParams returns the parameters an engine starts with.
func DefaultParams() SynthParams {
	return SynthParams{
		VoiceLimit: 8,
		Stiffness:  0.5,
		Decay:      0.5,
		Material:   0.5,
		Position:   0.25,
	}
}

// Clamp returns p with every field forced into its valid range. NaN fields
// fall back to the default value.
func (p SynthParams) Clamp() SynthParams {
	def := DefaultParams()
	out := p
	if out.VoiceLimit < 0 {
		out.VoiceLimit = 0
	}
	if out.VoiceLimit > MaxVoices {
		out.VoiceLimit = MaxVoices
	}
	out.Stiffness = clampUnit(p.Stiffness, def.Stiffness)
	out.Decay = clampUnit(p.Decay, def.Decay)
	out.Material = clampUnit(p.Material, def.Material)
	out.Position = clampUnit(p.Position, def.Position)
	return out
}

func clampUnit(v float64, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return dspcore.Clamp(v, 0, 1)
}
