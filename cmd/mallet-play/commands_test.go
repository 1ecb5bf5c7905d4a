package main

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/cwbudde/algo-mallet/mallet"
)

func TestReadCommandsDrivesEngine(t *testing.T) {
	e, err := mallet.NewEngine(48000)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	c := mallet.NewController(e, mallet.DefaultParams())
	input := strings.Join([]string{
		`{"type":"setParams","params":{"voices":2,"stiffness":0.7,"decay":0.4,"material":0.2,"position":0.1}}`,
		``,
		`# comment`,
		`{"type":"noteOn","note":60,"velocity":100}`,
		`not json`,
		`{"type":"noteOn","note":64,"velocity":90}`,
		`{"type":"noteOff","note":64}`,
		`{"type":"aftertouch","note":64}`,
		`{"type":"noteOn","note":67,"velocity":80}`,
	}, "\n")

	if err := readCommands(context.Background(), strings.NewReader(input), c); err != nil {
		t.Fatalf("readCommands: %v", err)
	}
	e.Process(16)
	if got, want := e.Voices(), []int{64, 67}; !reflect.DeepEqual(got, want) {
		t.Fatalf("voices: got=%v want=%v", got, want)
	}
	want := mallet.SynthParams{VoiceLimit: 2, Stiffness: 0.7, Decay: 0.4, Material: 0.2, Position: 0.1}
	if e.Params() != want || c.Current() != want {
		t.Fatalf("params: engine=%+v controller=%+v", e.Params(), c.Current())
	}
	if c.KeyDown(64) || !c.KeyDown(67) {
		t.Fatalf("key state not tracked from commands")
	}
}

func TestReadCommandsStopsOnCancel(t *testing.T) {
	e, _ := mallet.NewEngine(48000)
	c := mallet.NewController(e, mallet.DefaultParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := readCommands(ctx, strings.NewReader(`{"type":"noteOn","note":60,"velocity":100}`), c)
	if err != context.Canceled {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	e.Process(1)
	if len(e.Voices()) != 0 {
		t.Fatalf("command applied after cancel")
	}
}
