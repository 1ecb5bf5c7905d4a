package mallet

import "fmt"

// DefaultQueueSize is the message queue capacity used when none is given.
const DefaultQueueSize = 1024

type engineConfig struct {
	params    SynthParams
	queueSize int
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithParams sets the parameters in effect before the first setParams.
func WithParams(p SynthParams) Option {
	return func(cfg *engineConfig) {
		cfg.params = p
	}
}

// WithQueueSize sets the control message queue capacity.
func WithQueueSize(n int) Option {
	return func(cfg *engineConfig) {
		if n > 0 {
			cfg.queueSize = n
		}
	}
}

// Engine is the render side of the synthesizer. Post may be called from one
// control goroutine while another goroutine calls Process or ProcessInto;
// every other method belongs to the render goroutine.
type Engine struct {
	sampleRate int
	pool       *VoicePool
	queue      *Queue
	notes      []int
}

// NewEngine creates an engine rendering at sampleRate.
func NewEngine(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	cfg := engineConfig{
		params:    DefaultParams(),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Engine{
		sampleRate: sampleRate,
		pool:       NewVoicePool(sampleRate, cfg.params),
		queue:      NewQueue(cfg.queueSize),
		notes:      make([]int, 0, MaxVoices),
	}, nil
}

// SampleRate returns the render sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Post queues msg for the render goroutine. Messages are applied in order
// before the next rendered block.
func (e *Engine) Post(msg Message) {
	e.queue.Push(msg)
}

// SetParams posts a setParams message.
func (e *Engine) SetParams(p SynthParams) {
	e.Post(SetParamsMessage(p))
}

// NoteOn posts a noteOn message.
func (e *Engine) NoteOn(note, velocity int) {
	e.Post(NoteOnMessage(note, velocity))
}

// Pending returns the number of posted messages not yet applied.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Apply applies msg immediately. Unknown kinds and noteOff are ignored.
func (e *Engine) Apply(msg Message) {
	switch msg.Kind {
	case KindSetParams:
		e.pool.SetParams(msg.Params)
	case KindNoteOn:
		e.pool.NoteOn(msg.Note, msg.Velocity)
	}
}

func (e *Engine) drain() {
	for {
		msg, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.Apply(msg)
	}
}

// ProcessInto applies all pending messages and renders len(out) samples.
func (e *Engine) ProcessInto(out []float32) {
	e.drain()
	for i := range out {
		out[i] = float32(e.pool.Process())
	}
}

// Process renders numFrames samples into a new mono block.
func (e *Engine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames)
	e.ProcessInto(out)
	return out
}

// Voices returns the active notes, oldest-triggered first. The slice is
// reused by the next call.
func (e *Engine) Voices() []int {
	e.notes = e.pool.Notes(e.notes[:0])
	return e.notes
}

// Params returns the parameters in effect on the render side.
func (e *Engine) Params() SynthParams {
	return e.pool.Params()
}
