package host

import (
	"fmt"

	"github.com/cwbudde/algo-mallet/mallet"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// HandleMIDI forwards note messages on any channel to trig. Note-on with
// velocity 0 counts as a note-off. It reports whether msg was a note message.
func HandleMIDI(msg midi.Message, trig mallet.NoteTrigger) bool {
	var ch, key, vel uint8
	if msg.GetNoteStart(&ch, &key, &vel) {
		trig.NoteOn(int(key), int(vel))
		return true
	}
	if msg.GetNoteEnd(&ch, &key) {
		trig.NoteOff(int(key))
		return true
	}
	return false
}

// ListenMIDI listens on the named input port, or on every input port when
// name is empty, and drives trig. onErr receives listener errors. The
// returned function stops all listeners. A MIDI driver must be registered by
// importing one, e.g. gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func ListenMIDI(name string, trig mallet.NoteTrigger, onErr func(error)) (func(), error) {
	var ins []drivers.In
	if name != "" {
		in, err := midi.FindInPort(name)
		if err != nil {
			return nil, fmt.Errorf("midi input %q: %w", name, err)
		}
		ins = append(ins, in)
	} else {
		ins = midi.GetInPorts()
	}
	if len(ins) == 0 {
		return nil, fmt.Errorf("no midi inputs found")
	}

	opts := []midi.Option{}
	if onErr != nil {
		opts = append(opts, midi.HandleError(onErr))
	}
	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}
	for _, in := range ins {
		stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
			HandleMIDI(msg, trig)
		}, opts...)
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("listen on %s: %w", in, err)
		}
		stops = append(stops, stop)
	}
	return stopAll, nil
}

// InputNames lists the available MIDI input ports.
func InputNames() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}
