package mallet

// Kind tags a control message.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSetParams
	KindNoteOn
	KindNoteOff
)

func (k Kind) String() string {
	switch k {
	case KindSetParams:
		return "setParams"
	case KindNoteOn:
		return "noteOn"
	case KindNoteOff:
		return "noteOff"
	default:
		return "unknown"
	}
}

// Message is a control-to-render message. It is a plain value so posting one
// never allocates.
type Message struct {
	Kind     Kind
	Params   SynthParams
	Note     int
	Velocity int
}

// SetParamsMessage builds a setParams message.
func SetParamsMessage(p SynthParams) Message {
	return Message{Kind: KindSetParams, Params: p}
}

// NoteOnMessage builds a noteOn message.
func NoteOnMessage(note, velocity int) Message {
	return Message{Kind: KindNoteOn, Note: note, Velocity: velocity}
}

// NoteOffMessage builds a noteOff message. The engine accepts it and does
// nothing; voices only end by eviction.
func NoteOffMessage(note int) Message {
	return Message{Kind: KindNoteOff, Note: note}
}
