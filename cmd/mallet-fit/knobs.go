package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-mallet/internal/fitcommon"
	"github.com/cwbudde/algo-mallet/mallet"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

var allKnobs = []knobDef{
	{Name: "stiffness", Min: 0, Max: 1},
	{Name: "decay", Min: 0, Max: 1},
	{Name: "material", Min: 0, Max: 1},
	{Name: "position", Min: 0, Max: 1},
}

// parseKnobs parses a comma-separated list of knob names. "all" selects every knob.
func parseKnobs(raw string) ([]knobDef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "all" {
		return append([]knobDef(nil), allKnobs...), nil
	}
	seen := make(map[string]bool)
	var defs []knobDef
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		d, ok := lookupKnob(s)
		if !ok {
			return nil, fmt.Errorf("unknown knob %q (valid: stiffness, decay, material, position, all)", s)
		}
		seen[s] = true
		defs = append(defs, d)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no knobs specified")
	}
	return defs, nil
}

func lookupKnob(name string) (knobDef, bool) {
	for _, d := range allKnobs {
		if d.Name == name {
			return d, true
		}
	}
	return knobDef{}, false
}

func knobField(p *mallet.SynthParams, name string) *float64 {
	switch name {
	case "stiffness":
		return &p.Stiffness
	case "decay":
		return &p.Decay
	case "material":
		return &p.Material
	case "position":
		return &p.Position
	}
	return nil
}

func initCandidate(base mallet.SynthParams, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		if f := knobField(&base, d.Name); f != nil {
			vals[i] = fitcommon.Clamp(*f, d.Min, d.Max)
		}
	}
	return candidate{Vals: vals}
}

// applyCandidate returns base with every knob in defs replaced by cand.
func applyCandidate(base mallet.SynthParams, defs []knobDef, cand candidate) mallet.SynthParams {
	p := base
	for i, d := range defs {
		if i >= len(cand.Vals) {
			break
		}
		if f := knobField(&p, d.Name); f != nil {
			*f = fitcommon.Clamp(cand.Vals[i], d.Min, d.Max)
		}
	}
	return p.Clamp()
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) && !math.IsNaN(pos[i]) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		vals[i] = defs[i].Min + x*(defs[i].Max-defs[i].Min)
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

func candidateKnobs(defs []knobDef, cand candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		if i < len(cand.Vals) {
			m[d.Name] = cand.Vals[i]
		}
	}
	return m
}

func candidateFromKnobs(knobs map[string]float64, defs []knobDef, fallback candidate) candidate {
	out := cloneCandidate(fallback)
	for i, d := range defs {
		if v, ok := knobs[d.Name]; ok && i < len(out.Vals) {
			out.Vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
		}
	}
	return out
}
