package mallet

import "math"

// NoteToFreq converts a MIDI note number to its equal-tempered frequency in Hz
// (A4 = note 69 = 440 Hz). Any integer is accepted.
func NoteToFreq(note int) float64 {
	const a4Freq = 440.0
	const a4Note = 69
	return a4Freq * math.Pow(2, float64(note-a4Note)/12.0)
}

func clampVelocity(velocity int) int {
	if velocity < 0 {
		return 0
	}
	if velocity > 127 {
		return 127
	}
	return velocity
}
