package main

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cwbudde/algo-mallet/analysis"
	"github.com/cwbudde/algo-mallet/internal/fitcommon"
	"github.com/cwbudde/algo-mallet/mallet"
	"github.com/cwbudde/algo-mallet/preset"
)

func TestParseKnobs(t *testing.T) {
	defs, err := parseKnobs("all")
	if err != nil || len(defs) != 4 {
		t.Fatalf("parseKnobs(all) = %v, %v", defs, err)
	}
	defs, err = parseKnobs(" decay, material ,decay")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "decay" || defs[1].Name != "material" {
		t.Fatalf("unexpected defs: %+v", defs)
	}
	if _, err := parseKnobs("decay,hardness"); err == nil {
		t.Fatal("expected error for unknown knob")
	}
	if _, err := parseKnobs(" , "); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestApplyCandidateOnlyTouchesSelectedKnobs(t *testing.T) {
	defs, _ := parseKnobs("stiffness,position")
	base := mallet.DefaultParams()
	p := applyCandidate(base, defs, candidate{Vals: []float64{0.9, 1.7}})
	if p.Stiffness != 0.9 {
		t.Fatalf("stiffness = %v, want 0.9", p.Stiffness)
	}
	if p.Position != 1 {
		t.Fatalf("position = %v, want clamped 1", p.Position)
	}
	if p.Decay != base.Decay || p.Material != base.Material || p.VoiceLimit != base.VoiceLimit {
		t.Fatalf("unselected fields changed: %+v", p)
	}
}

func TestFromNormalizedClampsAndPads(t *testing.T) {
	defs, _ := parseKnobs("all")
	c := fromNormalized([]float64{-0.5, 0.25, math.NaN()}, defs)
	want := []float64{0, 0.25, 0, 0}
	for i := range want {
		if c.Vals[i] != want[i] {
			t.Fatalf("Vals[%d] = %v, want %v", i, c.Vals[i], want[i])
		}
	}
}

func TestInitCandidateReadsBase(t *testing.T) {
	defs, _ := parseKnobs("material,decay")
	base := mallet.DefaultParams()
	base.Material = 0.8
	base.Decay = 0.1
	c := initCandidate(base, defs)
	if c.Vals[0] != 0.8 || c.Vals[1] != 0.1 {
		t.Fatalf("initCandidate = %v", c.Vals)
	}
}

func TestReserveEvalStopsAtLimit(t *testing.T) {
	var evals int64
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, 100); !ok {
					return
				}
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != 100 || evals != 100 {
		t.Fatalf("granted=%d evals=%d, want 100", granted, evals)
	}
}

func TestUpdateTopCandidatesKeepsBest(t *testing.T) {
	defs, _ := parseKnobs("decay")
	var top []topCandidate
	scores := []float64{0.5, 0.2, 0.9, 0.2, 0.1}
	for i, s := range scores {
		top = updateTopCandidates(top, 3, i+1, analysis.Metrics{Score: s}, defs, candidate{Vals: []float64{float64(i) / 10}})
	}
	if len(top) != 3 {
		t.Fatalf("len(top) = %d, want 3", len(top))
	}
	wantEvals := []int{5, 2, 4}
	for i, e := range wantEvals {
		if top[i].Eval != e {
			t.Fatalf("top[%d].Eval = %d, want %d", i, top[i].Eval, e)
		}
	}
	if top[0].Knobs["decay"] != 0.4 {
		t.Fatalf("top[0] decay = %v, want 0.4", top[0].Knobs["decay"])
	}
}

func TestNewMayflyConfigVariants(t *testing.T) {
	for _, v := range []string{"ma", "desma", "olce", "eobbma", "gsasma", "mpma", "aoblmoa"} {
		cfg, err := newMayflyConfig(v, 10, 4, 3)
		if err != nil {
			t.Fatalf("variant %s: %v", v, err)
		}
		if cfg.ProblemSize != 4 || cfg.NPop != 10 || cfg.NC != 20 || cfg.NM != 1 || cfg.MaxIterations != 3 {
			t.Fatalf("variant %s: unexpected config %+v", v, cfg)
		}
	}
	if _, err := newMayflyConfig("pso", 10, 4, 3); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestLoadCandidateFromReport(t *testing.T) {
	defs, _ := parseKnobs("stiffness,decay")
	fallback := candidate{Vals: []float64{0.5, 0.5}}

	got, ok, err := loadCandidateFromReport(filepath.Join(t.TempDir(), "missing.json"), defs, fallback)
	if err != nil || ok || got.Vals[0] != 0.5 {
		t.Fatalf("missing report: got=%v ok=%v err=%v", got, ok, err)
	}

	path := filepath.Join(t.TempDir(), "rep.json")
	if err := os.WriteFile(path, []byte(`{"best_knobs":{"decay":0.75,"material":0.1}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok, err = loadCandidateFromReport(path, defs, fallback)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.Vals[0] != 0.5 || got.Vals[1] != 0.75 {
		t.Fatalf("got %v, want [0.5 0.75]", got.Vals)
	}
	if fallback.Vals[1] != 0.5 {
		t.Fatal("fallback was mutated")
	}
}

func TestRunOptimizationSingleEvalWritesOutputs(t *testing.T) {
	base := mallet.DefaultParams()
	opts := fitcommon.RenderOptions{SampleRate: 8000, BlockSize: 64, Duration: 0.25, DecayDBFS: math.Inf(1)}
	ref, err := fitcommon.RenderStrike(base, 69, 100, opts)
	if err != nil {
		t.Fatal(err)
	}
	defs, _ := parseKnobs("all")
	cfg := &optimizationConfig{
		reference:        fitcommon.Float64s(ref),
		baseParams:       base,
		defs:             defs,
		initCandidate:    initCandidate(base, defs),
		note:             69,
		velocity:         100,
		render:           opts,
		timeBudget:       5,
		maxEvals:         1,
		mayflyVariant:    "desma",
		mayflyPop:        4,
		mayflyRoundEvals: 8,
		workers:          1,
		topK:             3,
	}
	res, err := runOptimization(cfg)
	if err != nil {
		t.Fatalf("runOptimization: %v", err)
	}
	if res.evals != 1 || len(res.top) != 1 {
		t.Fatalf("evals=%d top=%d, want 1/1", res.evals, len(res.top))
	}
	if res.bestParams != base {
		t.Fatalf("bestParams = %+v, want %+v", res.bestParams, base)
	}
	if res.bestMetrics.Score > 0.05 {
		t.Fatalf("self-comparison score = %v, want near 0", res.bestMetrics.Score)
	}

	dir := t.TempDir()
	paths := outputPaths{preset: filepath.Join(dir, "out", "fitted.json"), reference: "ref.wav"}
	if err := writeOutputs(paths, cfg, res); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	loaded, err := preset.LoadJSON(paths.preset)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if loaded != base {
		t.Fatalf("saved preset = %+v, want %+v", loaded, base)
	}
	resumed, ok, err := loadCandidateFromReport(paths.reportPath(), defs, candidate{Vals: make([]float64, 4)})
	if err != nil || !ok {
		t.Fatalf("resume: ok=%v err=%v", ok, err)
	}
	if resumed.Vals[1] != base.Decay {
		t.Fatalf("resumed decay = %v, want %v", resumed.Vals[1], base.Decay)
	}
}

func TestRunOptimizationRejectsUnknownVariant(t *testing.T) {
	defs, _ := parseKnobs("decay")
	cfg := &optimizationConfig{
		baseParams:    mallet.DefaultParams(),
		defs:          defs,
		initCandidate: candidate{Vals: []float64{0.5}},
		mayflyVariant: "nope",
		mayflyPop:     4,
		maxEvals:      1,
		timeBudget:    1,
		topK:          1,
	}
	if _, err := runOptimization(cfg); err == nil {
		t.Fatal("expected error")
	}
}
