package mallet

import (
	"reflect"
	"sync"
	"testing"
)

type recordingPoster struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recordingPoster) Post(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func TestControllerPostsInitialParams(t *testing.T) {
	rec := &recordingPoster{}
	c := NewController(rec, SynthParams{VoiceLimit: 200, Stiffness: 0.3})
	want := SynthParams{VoiceLimit: MaxVoices, Stiffness: 0.3}
	if len(rec.msgs) != 1 || rec.msgs[0] != SetParamsMessage(want) {
		t.Fatalf("got=%+v", rec.msgs)
	}
	if c.Current() != want {
		t.Fatalf("current=%+v want=%+v", c.Current(), want)
	}
}

func TestControllerNoteOffNeverPosts(t *testing.T) {
	rec := &recordingPoster{}
	c := NewController(rec, DefaultParams())
	c.NoteOn(60, 90)
	if !c.KeyDown(60) || c.LastVelocity(60) != 90 {
		t.Fatalf("key state not tracked")
	}
	c.NoteOff(60)
	if c.KeyDown(60) {
		t.Fatalf("key still down after NoteOff")
	}
	if len(rec.msgs) != 2 || rec.msgs[1] != NoteOnMessage(60, 90) {
		t.Fatalf("got=%+v", rec.msgs)
	}
	if c.KeyDown(-1) || c.KeyDown(128) || c.LastVelocity(500) != 0 {
		t.Fatalf("out of range keys must read as released")
	}
}

func TestControllerOctaveShift(t *testing.T) {
	rec := &recordingPoster{}
	c := NewController(rec, DefaultParams())
	c.SetOctave(-1)
	c.NoteOn(60, 100)
	c.SetOctave(2)
	c.NoteOn(60, 100)
	got := []Message{rec.msgs[1], rec.msgs[2]}
	want := []Message{NoteOnMessage(48, 100), NoteOnMessage(84, 100)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestControllerUntransposedIgnoresOctave(t *testing.T) {
	rec := &recordingPoster{}
	c := NewController(rec, DefaultParams())
	c.SetOctave(1)
	raw := c.Untransposed()
	raw.NoteOn(60, 90)
	c.NoteOn(60, 100)
	raw.NoteOff(60)

	got := rec.msgs[1:]
	want := []Message{NoteOnMessage(60, 90), NoteOnMessage(72, 100)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
	if c.KeyDown(60) {
		t.Fatalf("key 60 still held after untransposed note-off")
	}
	if got := c.LastVelocity(60); got != 100 {
		t.Fatalf("last velocity: got=%d want=100", got)
	}
}

func TestControllerUpdateEditsOneField(t *testing.T) {
	rec := &recordingPoster{}
	c := NewController(rec, DefaultParams())
	c.Update(func(p *SynthParams) { p.Material = 1.7 })
	want := DefaultParams()
	want.Material = 1
	if c.Current() != want {
		t.Fatalf("current=%+v want=%+v", c.Current(), want)
	}
	if last := rec.msgs[len(rec.msgs)-1]; last != SetParamsMessage(want) {
		t.Fatalf("posted=%+v", last)
	}
}

func TestControllerDrivesEngine(t *testing.T) {
	e, err := NewEngine(44100)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var trig NoteTrigger = NewController(e, SynthParams{VoiceLimit: 2, Stiffness: 0.5, Decay: 0.5, Material: 0.5, Position: 0.5})
	trig.NoteOn(60, 100)
	trig.NoteOn(62, 100)
	trig.NoteOff(60)
	trig.NoteOn(64, 100)
	e.Process(8)
	if got, want := e.Voices(), []int{62, 64}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if e.Params().VoiceLimit != 2 {
		t.Fatalf("engine params not synced: %+v", e.Params())
	}
}

func TestControllerSerializesProducers(t *testing.T) {
	e, err := NewEngine(48000, WithQueueSize(4096))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	c := NewController(e, DefaultParams())
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.NoteOn(20*g+i%20, 64)
				if i%50 == 0 {
					c.Update(func(p *SynthParams) { p.Decay = float64(i) / 200 })
				}
			}
		}(g)
	}
	wg.Wait()
	if e.Pending() != 1+4*200+4*4 {
		t.Fatalf("pending=%d", e.Pending())
	}
	e.Process(1)
	if len(e.Voices()) != DefaultParams().VoiceLimit {
		t.Fatalf("voices=%v", e.Voices())
	}
}
