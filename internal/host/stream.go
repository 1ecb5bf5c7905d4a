// Package host wires an engine to the outside world: the audio device and
// MIDI inputs.
package host

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-mallet/dsp"
	"github.com/cwbudde/algo-mallet/mallet"
)

// EngineReader renders an engine as a stream of little-endian float32 mono
// samples, the format the audio device pulls.
type EngineReader struct {
	engine *mallet.Engine
	stage  *dsp.OutputStage
	block  []float32
}

// NewEngineReader renders at most blockSize frames per engine call. stage may
// be nil.
func NewEngineReader(e *mallet.Engine, stage *dsp.OutputStage, blockSize int) *EngineReader {
	if blockSize <= 0 {
		blockSize = 128
	}
	return &EngineReader{
		engine: e,
		stage:  stage,
		block:  make([]float32, blockSize),
	}
}

// Read fills p with whole samples; trailing bytes that do not make a full
// sample are left untouched and not counted.
func (r *EngineReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	for done := 0; done < frames; {
		n := min(len(r.block), frames-done)
		block := r.block[:n]
		r.engine.ProcessInto(block)
		if r.stage != nil {
			r.stage.Process(block)
		}
		for i, v := range block {
			binary.LittleEndian.PutUint32(p[(done+i)*4:], math.Float32bits(v))
		}
		done += n
	}
	return frames * 4, nil
}
