package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-mallet/analysis"
	"github.com/cwbudde/algo-mallet/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path,omitempty"`
	OutputPreset   string             `json:"output_preset"`
	SampleRate     int                `json:"sample_rate"`
	Note           int                `json:"note"`
	Velocity       int                `json:"velocity"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputPaths struct {
	preset    string
	report    string
	reference string
	base      string
}

func (o outputPaths) reportPath() string {
	if o.report != "" {
		return o.report
	}
	return o.preset + ".report.json"
}

func writeOutputs(paths outputPaths, cfg *optimizationConfig, res *optimizationResult) error {
	if err := preset.SaveJSON(paths.preset, res.bestParams); err != nil {
		return err
	}
	rep := runReport{
		ReferencePath:  paths.reference,
		PresetPath:     paths.base,
		OutputPreset:   paths.preset,
		SampleRate:     cfg.render.SampleRate,
		Note:           cfg.note,
		Velocity:       cfg.velocity,
		DurationSec:    res.elapsed,
		Evaluations:    res.evals,
		MayflyVariant:  cfg.mayflyVariant,
		BestScore:      res.bestMetrics.Score,
		BestSimilarity: res.bestMetrics.Similarity,
		BestMetrics:    res.bestMetrics,
		BestKnobs:      candidateKnobs(cfg.defs, res.best),
		TopCandidates:  res.top,
	}
	return writeJSON(paths.reportPath(), rep)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// loadCandidateFromReport reads best_knobs from a previous run. A missing
// report is not an error.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	updated := false
	for _, d := range defs {
		if _, ok := rep.BestKnobs[d.Name]; ok {
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidateFromKnobs(rep.BestKnobs, defs, fallback), true, nil
}
