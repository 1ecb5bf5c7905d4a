package mallet

import "sync"

// NoteTrigger is what input devices and UIs drive.
type NoteTrigger interface {
	NoteOn(note, velocity int)
	NoteOff(note int)
}

// ParamSource exposes the parameters most recently sent to the engine.
type ParamSource interface {
	Current() SynthParams
}

// Poster accepts control messages; *Engine implements it.
type Poster interface {
	Post(Message)
}

type keyStateTracker struct {
	keyDown      [128]bool
	lastVelocity [128]int
}

func (k *keyStateTracker) NoteOn(note int, velocity int) {
	if note < 0 || note > 127 {
		return
	}
	k.keyDown[note] = true
	k.lastVelocity[note] = velocity
}

func (k *keyStateTracker) NoteOff(note int) {
	if note < 0 || note > 127 {
		return
	}
	k.keyDown[note] = false
}

// Controller is the control-side front end of an engine. It serializes every
// input source onto the single-producer queue, remembers the last params it
// posted and tracks held keys for display. Note-offs never reach the engine.
type Controller struct {
	mu        sync.Mutex
	target    Poster
	params    SynthParams
	keys      keyStateTracker
	transpose int
}

var (
	_ NoteTrigger = (*Controller)(nil)
	_ ParamSource = (*Controller)(nil)
)

// NewController wraps target and immediately posts params so the render side
// and the controller agree.
func NewController(target Poster, params SynthParams) *Controller {
	c := &Controller{target: target}
	c.SetParams(params)
	return c
}

// SetOctave shifts incoming notes by 12*octave semitones.
func (c *Controller) SetOctave(octave int) {
	c.mu.Lock()
	c.transpose = 12 * octave
	c.mu.Unlock()
}

// NoteOn marks the key held and posts a transposed noteOn.
func (c *Controller) NoteOn(note, velocity int) {
	c.noteOn(note, velocity, true)
}

func (c *Controller) noteOn(note, velocity int, shift bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys.NoteOn(note, velocity)
	if shift {
		note += c.transpose
	}
	c.target.Post(NoteOnMessage(note, velocity))
}

// Untransposed returns a NoteTrigger on c that ignores the octave shift.
// Hardware MIDI input plays at its own pitch.
func (c *Controller) Untransposed() NoteTrigger {
	return untransposed{c}
}

type untransposed struct{ c *Controller }

func (u untransposed) NoteOn(note, velocity int) { u.c.noteOn(note, velocity, false) }
func (u untransposed) NoteOff(note int)          { u.c.NoteOff(note) }

// NoteOff releases the key. The sound keeps ringing.
func (c *Controller) NoteOff(note int) {
	c.mu.Lock()
	c.keys.NoteOff(note)
	c.mu.Unlock()
}

// KeyDown reports whether key note is held.
func (c *Controller) KeyDown(note int) bool {
	if note < 0 || note > 127 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.keyDown[note]
}

// LastVelocity returns the velocity of the most recent strike of key note.
func (c *Controller) LastVelocity(note int) int {
	if note < 0 || note > 127 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.lastVelocity[note]
}

// SetParams clamps and posts p.
func (c *Controller) SetParams(p SynthParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p.Clamp()
	c.target.Post(SetParamsMessage(c.params))
}

// Update edits the current params in place and posts the result, the way a
// single UI control changes one field.
func (c *Controller) Update(edit func(*SynthParams)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.params
	edit(&p)
	c.params = p.Clamp()
	c.target.Post(SetParamsMessage(c.params))
}

// Current returns the last posted params.
func (c *Controller) Current() SynthParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}
