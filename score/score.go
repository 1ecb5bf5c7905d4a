// Package score holds time-stamped control messages for offline rendering.
package score

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/cwbudde/algo-mallet/mallet"
)

// Event is a message scheduled at Time seconds from the start of the render.
type Event struct {
	Time    float64        `json:"time"`
	Message mallet.Message `json:"message"`
}

// Score is a list of events plus the render length.
type Score struct {
	// Params, when set, are in effect before the first event.
	Params *mallet.SynthParams `json:"params,omitempty"`
	// Duration is the render length in seconds. Zero means last event plus tail.
	Duration float64 `json:"duration,omitempty"`
	Events   []Event `json:"events"`
}

// LoadJSON reads and validates a score file. Events are sorted by time; events
// sharing a time keep file order.
func LoadJSON(path string) (*Score, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Score
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse score %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("score %s: %w", path, err)
	}
	s.Sort()
	return &s, nil
}

// Validate checks times and duration.
func (s *Score) Validate() error {
	if math.IsNaN(s.Duration) || s.Duration < 0 {
		return fmt.Errorf("duration must be >= 0")
	}
	for i, ev := range s.Events {
		if math.IsNaN(ev.Time) || math.IsInf(ev.Time, 0) || ev.Time < 0 {
			return fmt.Errorf("events[%d].time must be a finite value >= 0", i)
		}
	}
	return nil
}

// Sort orders events by time, stable for equal times.
func (s *Score) Sort() {
	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].Time < s.Events[j].Time
	})
}

// End returns the last event time in seconds.
func (s *Score) End() float64 {
	end := 0.0
	for _, ev := range s.Events {
		if ev.Time > end {
			end = ev.Time
		}
	}
	return end
}

// Length returns the number of frames to render at sampleRate.
func (s *Score) Length(sampleRate int, tail float64) int {
	d := s.Duration
	if d <= 0 {
		d = s.End() + math.Max(tail, 0)
	}
	return int(math.Ceil(d * float64(sampleRate)))
}

// Render plays the score through e in blocks of blockSize frames. Each event is
// posted before the block that contains its frame, so timing is quantized to
// block boundaries. Events are assumed sorted.
func Render(e *mallet.Engine, s *Score, blockSize int, tail float64) []float32 {
	if blockSize <= 0 {
		blockSize = 128
	}
	sr := e.SampleRate()
	if s.Params != nil {
		e.Apply(mallet.SetParamsMessage(*s.Params))
	}
	out := make([]float32, s.Length(sr, tail))
	next := 0
	for start := 0; start < len(out); start += blockSize {
		end := start + blockSize
		if end > len(out) {
			end = len(out)
		}
		for next < len(s.Events) && frameOf(s.Events[next].Time, sr) < end {
			e.Apply(s.Events[next].Message)
			next++
		}
		e.ProcessInto(out[start:end])
	}
	return out
}

func frameOf(t float64, sampleRate int) int {
	return int(math.Floor(t * float64(sampleRate)))
}
