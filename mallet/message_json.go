package mallet

import (
	"encoding/json"
	"fmt"
)

type wireMessage struct {
	Type     string       `json:"type"`
	Params   *SynthParams `json:"params,omitempty"`
	Note     *int         `json:"note,omitempty"`
	Velocity *int         `json:"velocity,omitempty"`
}

// MarshalJSON encodes the message as a tagged record, e.g.
// {"type":"noteOn","note":60,"velocity":100}.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Type: m.Kind.String()}
	switch m.Kind {
	case KindSetParams:
		p := m.Params
		w.Params = &p
	case KindNoteOn:
		note, vel := m.Note, m.Velocity
		w.Note = &note
		w.Velocity = &vel
	case KindNoteOff:
		note := m.Note
		w.Note = &note
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a tagged record. Unknown types decode to KindUnknown
// without error so that newer senders do not break older engines.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = Message{}
	switch w.Type {
	case "setParams":
		if w.Params == nil {
			return fmt.Errorf("setParams message without params")
		}
		m.Kind = KindSetParams
		m.Params = *w.Params
	case "noteOn":
		if w.Note == nil {
			return fmt.Errorf("noteOn message without note")
		}
		if w.Velocity == nil {
			return fmt.Errorf("noteOn message without velocity")
		}
		m.Kind = KindNoteOn
		m.Note = *w.Note
		m.Velocity = *w.Velocity
	case "noteOff":
		if w.Note == nil {
			return fmt.Errorf("noteOff message without note")
		}
		m.Kind = KindNoteOff
		m.Note = *w.Note
	default:
		m.Kind = KindUnknown
	}
	return nil
}
