package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-mallet/internal/fitcommon"
	"github.com/cwbudde/algo-mallet/mallet"
	"github.com/cwbudde/algo-mallet/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (defaults when empty)")
	outputPreset := flag.String("output-preset", "assets/presets/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	knobs := flag.String("optimize", "all", "Comma-separated knobs to optimize: stiffness, decay, material, position, all")
	note := flag.Int("note", 69, "MIDI note to fit")
	velocity := flag.Int("velocity", 100, "MIDI velocity for rendering during fit")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 1.0, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum render duration in seconds")
	renderBlockSize := flag.Int("render-block-size", 128, "Audio render block size for candidate evaluation")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	defs, err := parseKnobs(*knobs)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	*topK = max(*topK, 1)
	*renderBlockSize = max(*renderBlockSize, 16)
	*maxDuration = max(*maxDuration, *minDuration)
	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := mallet.DefaultParams()
	if *presetPath != "" {
		if baseParams, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}
	// One voice is enough for a single strike.
	baseParams.VoiceLimit = max(baseParams.VoiceLimit, 1)

	ref, err := fitcommon.ReadWAVMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	paths := outputPaths{
		preset:    *outputPreset,
		report:    *reportPath,
		reference: *referencePath,
		base:      *presetPath,
	}

	initCand := initCandidate(baseParams, defs)
	if *resume {
		if resumed, ok, err := loadCandidateFromReport(paths.reportPath(), defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", paths.reportPath(), err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", paths.reportPath())
		}
	}

	cfg := &optimizationConfig{
		reference:     ref,
		baseParams:    baseParams,
		defs:          defs,
		initCandidate: initCand,
		note:          *note,
		velocity:      *velocity,
		render: fitcommon.RenderOptions{
			SampleRate:  *sampleRate,
			BlockSize:   *renderBlockSize,
			DecayDBFS:   *decayDBFS,
			HoldBlocks:  *decayHoldBlocks,
			MinDuration: *minDuration,
			MaxDuration: *maxDuration,
		},
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}
	cfg.onImprove = func(res *optimizationResult) {
		if err := writeOutputs(paths, cfg, res); err != nil {
			fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
		}
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	if err := writeOutputs(paths, cfg, result); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, cfg.mayflyVariant)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
