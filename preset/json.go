package preset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-mallet/mallet"
)

// File is the JSON schema for mallet presets. Missing fields keep the value
// of the params the file is applied onto.
type File struct {
	Voices    *int     `json:"voices"`
	Stiffness *float64 `json:"stiffness"`
	Decay     *float64 `json:"decay"`
	Material  *float64 `json:"material"`
	Position  *float64 `json:"position"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (mallet.SynthParams, error) {
	p := mallet.DefaultParams()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return p, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if err := ApplyFile(&p, &f); err != nil {
		return p, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params value.
func ApplyFile(dst *mallet.SynthParams, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.Voices != nil {
		if *f.Voices < 0 || *f.Voices > mallet.MaxVoices {
			return fmt.Errorf("voices must be in [0,%d]", mallet.MaxVoices)
		}
		dst.VoiceLimit = *f.Voices
	}
	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"stiffness", f.Stiffness, &dst.Stiffness},
		{"decay", f.Decay, &dst.Decay},
		{"material", f.Material, &dst.Material},
		{"position", f.Position, &dst.Position},
	}
	for _, fd := range fields {
		if fd.src == nil {
			continue
		}
		v := *fd.src
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1]", fd.name)
		}
		*fd.dst = v
	}
	return nil
}

// FromParams returns a fully populated preset file for p.
func FromParams(p mallet.SynthParams) File {
	p = p.Clamp()
	return File{
		Voices:    &p.VoiceLimit,
		Stiffness: &p.Stiffness,
		Decay:     &p.Decay,
		Material:  &p.Material,
		Position:  &p.Position,
	}
}

// SaveJSON writes p as an indented preset file.
func SaveJSON(path string, p mallet.SynthParams) error {
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write preset %s: %w", path, err)
	}
	return nil
}
