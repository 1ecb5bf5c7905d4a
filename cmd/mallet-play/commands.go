package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"

	"github.com/cwbudde/algo-mallet/mallet"
)

// controlTarget is what stdin commands drive.
type controlTarget interface {
	mallet.NoteTrigger
	SetParams(mallet.SynthParams)
}

// readCommands decodes one JSON control message per line and forwards it to
// c until r is exhausted or ctx is cancelled. Bad lines are logged and
// skipped. EOF ends the reader without stopping playback.
func readCommands(ctx context.Context, r io.Reader, c controlTarget) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var msg mallet.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Printf("bad command %q: %v\n", line, err)
			continue
		}
		dispatch(c, msg)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	log.Println("readCommands() ended.")
	return nil
}

func dispatch(c controlTarget, msg mallet.Message) {
	switch msg.Kind {
	case mallet.KindSetParams:
		c.SetParams(msg.Params)
	case mallet.KindNoteOn:
		c.NoteOn(msg.Note, msg.Velocity)
	case mallet.KindNoteOff:
		c.NoteOff(msg.Note)
	default:
		log.Printf("ignoring %s message\n", msg.Kind)
	}
}
