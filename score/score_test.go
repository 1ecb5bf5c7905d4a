package score

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-mallet/mallet"
)

func writeScore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "score.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write score: %v", err)
	}
	return path
}

func TestLoadJSONSortsStable(t *testing.T) {
	path := writeScore(t, `{
  "params": {"voices": 2, "stiffness": 0.5, "decay": 0.5, "material": 0.5, "position": 0.25},
  "events": [
    {"time": 0.5, "message": {"type": "noteOn", "note": 67, "velocity": 90}},
    {"time": 0.0, "message": {"type": "noteOn", "note": 60, "velocity": 100}},
    {"time": 0.5, "message": {"type": "noteOff", "note": 60}},
    {"time": 0.25, "message": {"type": "noteOn", "note": 64, "velocity": 80}}
  ]
}`)
	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if s.Params == nil || s.Params.VoiceLimit != 2 {
		t.Fatalf("params not decoded: %+v", s.Params)
	}
	want := []mallet.Message{
		mallet.NoteOnMessage(60, 100),
		mallet.NoteOnMessage(64, 80),
		mallet.NoteOnMessage(67, 90),
		mallet.NoteOffMessage(60),
	}
	got := make([]mallet.Message, 0, len(s.Events))
	for _, ev := range s.Events {
		got = append(got, ev.Message)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
	if s.End() != 0.5 {
		t.Fatalf("end=%v", s.End())
	}
}

func TestLoadJSONRejectsNegativeTime(t *testing.T) {
	path := writeScore(t, `{"events":[{"time":-1,"message":{"type":"noteOn","note":60,"velocity":1}}]}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for negative time")
	}
	path = writeScore(t, `{"duration":-2,"events":[]}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestLength(t *testing.T) {
	s := &Score{Events: []Event{{Time: 1}}}
	if got := s.Length(1000, 0.5); got != 1500 {
		t.Fatalf("got=%d want 1500", got)
	}
	s.Duration = 2
	if got := s.Length(1000, 0.5); got != 2000 {
		t.Fatalf("got=%d want 2000", got)
	}
}

func TestRenderMatchesManualBlocks(t *testing.T) {
	const sr = 8000
	const block = 100
	s := &Score{
		Duration: 0.125,
		Events: []Event{
			{Time: 0, Message: mallet.NoteOnMessage(60, 100)},
			{Time: 0.03125, Message: mallet.NoteOnMessage(72, 100)}, // frame 250, inside block 2
			{Time: 0.0625, Message: mallet.NoteOnMessage(67, 100)},  // frame 500, start of block 5
		},
	}
	e1, err := mallet.NewEngine(sr)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	got := Render(e1, s, block, 0)

	e2, _ := mallet.NewEngine(sr)
	var want []float32
	for b := 0; b < 10; b++ {
		switch b {
		case 0:
			e2.NoteOn(60, 100)
		case 2:
			e2.NoteOn(72, 100)
		case 5:
			e2.NoteOn(67, 100)
		}
		want = append(want, e2.Process(block)...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("score render differs from manual block posting")
	}
	if v := e1.Voices(); !reflect.DeepEqual(v, []int{60, 72, 67}) {
		t.Fatalf("voices=%v", v)
	}
}
