package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"

	"github.com/cwbudde/algo-mallet/dsp"
	"github.com/cwbudde/algo-mallet/internal/fitcommon"
	"github.com/cwbudde/algo-mallet/mallet"
	"github.com/cwbudde/algo-mallet/preset"
	"github.com/cwbudde/algo-mallet/score"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block", 128, "Render block size in frames")
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	scorePath := flag.String("score", "", "Score JSON file; replaces -note/-velocity")
	tail := flag.Float64("tail", 2.0, "Seconds rendered after the last score event when the score has no duration")
	gainDB := flag.Float64("gain-db", 0, "Master gain in dB")
	ceilingDB := flag.Float64("ceiling-db", 0, "Limiter ceiling in dBFS (-24..0); 0 disables the limiter")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := mallet.DefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		params = p
	}

	engine, err := mallet.NewEngine(*sampleRate, mallet.WithParams(params))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	var samples []float32
	if *scorePath != "" {
		s, err := score.LoadJSON(*scorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading score: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rendering score %s (%d events) at %d Hz...\n", *scorePath, len(s.Events), *sampleRate)
		samples = score.Render(engine, s, *blockSize, *tail)
	} else {
		fmt.Printf("Rendering note %d, velocity %d at %d Hz (voices %d, stiffness %.2f, decay %.2f, material %.2f, position %.2f)...\n",
			*note, *velocity, *sampleRate, params.VoiceLimit, params.Stiffness, params.Decay, params.Material, params.Position)
		engine.NoteOn(*note, *velocity)
		opts := fitcommon.RenderOptions{
			SampleRate:  *sampleRate,
			BlockSize:   *blockSize,
			Duration:    *duration,
			DecayDBFS:   *decayDBFS,
			HoldBlocks:  *decayHoldBlocks,
			MinDuration: *minDuration,
			MaxDuration: *maxDuration,
		}
		samples = fitcommon.Render(engine, opts)
		if opts.AutoStop() {
			fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", len(samples), float64(len(samples))/float64(*sampleRate), *decayDBFS)
		}
	}

	stage, err := dsp.NewOutputStage(*sampleRate, *gainDB, *ceilingDB, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output stage: %v\n", err)
		os.Exit(1)
	}
	samples = stage.ProcessAligned(samples)

	stats := dsptime.Calculate(fitcommon.Float64s(samples))
	fmt.Printf("Peak %.1f dBFS, RMS %.1f dBFS\n", stats.Peak_dB, stats.RMS_dB)
	if stats.Peak > 1 {
		fmt.Fprintf(os.Stderr, "Warning: output clips (peak %.2f); lower -gain-db or set -ceiling-db\n", stats.Peak)
	}

	if err := fitcommon.WriteMonoWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples))
}
