//go:build headless

package host

import (
	"errors"
	"io"
	"time"
)

// ErrNoAudio is returned by NewPlayer in headless builds.
var ErrNoAudio = errors.New("built without audio output (headless)")

type Player struct{}

func NewPlayer(sampleRate int, src io.Reader, bufferSize time.Duration) (*Player, error) {
	return nil, ErrNoAudio
}

func (p *Player) Start() {}

func (p *Player) Err() error { return nil }

func (p *Player) Close() error { return nil }
