package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cwbudde/algo-mallet/dsp"
	"github.com/cwbudde/algo-mallet/internal/host"
	"github.com/cwbudde/algo-mallet/mallet"
	"github.com/cwbudde/algo-mallet/preset"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	blockSize := flag.Int("block", 128, "Render block size in frames")
	bufferMs := flag.Int("buffer-ms", 20, "Audio device buffer in milliseconds (0 = driver default)")
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	midiPort := flag.String("midi", "", "MIDI input port name (all inputs when empty)")
	noMIDI := flag.Bool("no-midi", false, "Do not open MIDI inputs")
	listMIDI := flag.Bool("list-midi", false, "List MIDI input ports and exit")
	octave := flag.Int("octave", 0, "Octave shift applied to stdin notes (MIDI input is not shifted)")
	gainDB := flag.Float64("gain-db", -6, "Master gain in dB")
	ceilingDB := flag.Float64("ceiling-db", -1, "Limiter ceiling in dBFS (-24..0); 0 disables the limiter")
	stdinCommands := flag.Bool("stdin", true, "Read JSON control messages, one per line, from stdin")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	if *listMIDI {
		for i, name := range host.InputNames() {
			fmt.Printf("%d: %s\n", i, name)
		}
		return
	}

	params := mallet.DefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		params = p
	}

	engine, err := mallet.NewEngine(*sampleRate, mallet.WithParams(params))
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	controller := mallet.NewController(engine, params)
	controller.SetOctave(*octave)

	stage, err := dsp.NewOutputStage(*sampleRate, *gainDB, *ceilingDB, 1)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	player, err := host.NewPlayer(*sampleRate, host.NewEngineReader(engine, stage, *blockSize), time.Duration(*bufferMs)*time.Millisecond)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer player.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player.Start()
	log.Printf("playing at %d Hz, %d voices\n", *sampleRate, params.VoiceLimit)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchPlayer(ctx, player)
	})
	if !*noMIDI {
		stop, err := host.ListenMIDI(*midiPort, controller.Untransposed(), func(err error) {
			log.Printf("midi: %v\n", err)
		})
		if err != nil {
			log.Printf("MIDI disabled: %v\n", err)
		} else {
			g.Go(func() error {
				<-ctx.Done()
				stop()
				log.Println("MIDI closed.")
				return nil
			})
		}
	}
	if *stdinCommands {
		// Not part of the group: a blocked stdin read must not delay shutdown.
		go func() {
			if err := readCommands(ctx, os.Stdin, controller); err != nil && err != context.Canceled {
				log.Printf("stdin: %v\n", err)
			}
		}()
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func watchPlayer(ctx context.Context, player *host.Player) error {
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio device: %w", err)
			}
		}
	}
}
