package mallet

// VoicePool owns a fixed arena of voices and the trigger order of the active
// ones. The oldest-triggered voice is evicted first when the limit is hit.
// Nothing in NoteOn, SetParams or Process allocates.
type VoicePool struct {
	slots  []*Voice
	free   []int
	order  []int
	params SynthParams
}

// NewVoicePool allocates MaxVoices voices up front.
func NewVoicePool(sampleRate int, params SynthParams) *VoicePool {
	p := &VoicePool{
		slots:  make([]*Voice, MaxVoices),
		free:   make([]int, 0, MaxVoices),
		order:  make([]int, 0, MaxVoices),
		params: params.Clamp(),
	}
	for i := range p.slots {
		p.slots[i] = NewVoice(sampleRate, 0)
	}
	for i := MaxVoices - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

// Params returns the parameters currently applied to the pool.
func (p *VoicePool) Params() SynthParams {
	return p.params
}

// Len returns the number of active voices.
func (p *VoicePool) Len() int {
	return len(p.order)
}

// Notes appends the active notes to dst, oldest-triggered first.
func (p *VoicePool) Notes(dst []int) []int {
	for _, slot := range p.order {
		dst = append(dst, p.slots[slot].note)
	}
	return dst
}

// SetParams stores params, trims the pool to the new limit and
// re-parameterizes every remaining voice.
func (p *VoicePool) SetParams(params SynthParams) {
	p.params = params.Clamp()
	for len(p.order) > p.params.VoiceLimit {
		p.evictOldest()
	}
	for _, slot := range p.order {
		p.slots[slot].SetParams(p.params)
	}
}

// NoteOn strikes note. An active voice for the same note is re-struck and
// moved to the newest position without losing its ringing modes; otherwise a
// fresh voice is started, evicting the oldest one if the pool is full.
func (p *VoicePool) NoteOn(note, velocity int) {
	velocity = clampVelocity(velocity)

	if i := p.indexOf(note); i >= 0 {
		slot := p.order[i]
		copy(p.order[i:], p.order[i+1:])
		p.order[len(p.order)-1] = slot
		p.slots[slot].Strike(velocity)
		return
	}

	if p.params.VoiceLimit <= 0 {
		return
	}
	for len(p.order) >= p.params.VoiceLimit {
		p.evictOldest()
	}

	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	v := p.slots[slot]
	v.assign(note)
	v.SetParams(p.params)
	v.Strike(velocity)
	p.order = append(p.order, slot)
}

// Process renders one sample as the sum of all active voices.
func (p *VoicePool) Process() float64 {
	var sum float64
	for _, slot := range p.order {
		sum += p.slots[slot].Process()
	}
	return sum
}

func (p *VoicePool) indexOf(note int) int {
	for i, slot := range p.order {
		if p.slots[slot].note == note {
			return i
		}
	}
	return -1
}

func (p *VoicePool) evictOldest() {
	slot := p.order[0]
	copy(p.order, p.order[1:])
	p.order = p.order[:len(p.order)-1]
	p.free = append(p.free, slot)
}
