package main

import (
	"bytes"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultMinRadius is the enclosing-circle radius a contour must exceed to count as a ball.
const DefaultMinRadius = 10.0

// Settings is the detection geometry: which colours to look for, where the
// quadrants are and how small a blob may be.
type Settings struct {
	Palette   Palette
	Quadrants Quadrants
	MinRadius float64
}

// DefaultSettings returns the built-in five-colour, four-quadrant setup.
func DefaultSettings() Settings {
	return Settings{
		Palette:   DefaultPalette(),
		Quadrants: DefaultQuadrants(),
		MinRadius: DefaultMinRadius,
	}
}

type settingsFile struct {
	MinRadius *float64        `yaml:"min_radius"`
	Colors    []colorEntry    `yaml:"colors"`
	Quadrants []quadrantEntry `yaml:"quadrants"`
}

type colorEntry struct {
	Name  string `yaml:"name"`
	Lower [3]int `yaml:"lower"`
	Upper [3]int `yaml:"upper"`
}

type quadrantEntry struct {
	ID  int    `yaml:"id"`
	Min [2]int `yaml:"min"`
	Max [2]int `yaml:"max"`
}

// LoadSettings reads a YAML settings file. Sections left out keep their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrapf(ErrInvalidSettings, "read %s: %v", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes and validates a YAML settings document. Unknown keys
// are rejected. An empty document yields the defaults.
func ParseSettings(data []byte) (Settings, error) {
	var file settingsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.Wrapf(ErrInvalidSettings, "decode yaml: %v", err)
	}

	s := DefaultSettings()
	if file.MinRadius != nil {
		if *file.MinRadius < 0 {
			return Settings{}, errors.Wrapf(ErrInvalidSettings, "min_radius %v is negative", *file.MinRadius)
		}
		s.MinRadius = *file.MinRadius
	}

	if len(file.Colors) > 0 {
		palette := make(Palette, len(file.Colors))
		for i, c := range file.Colors {
			palette[i] = ColorRange{Name: c.Name, Lower: c.Lower, Upper: c.Upper}
		}
		s.Palette = palette
	}
	if err := s.Palette.Validate(); err != nil {
		return Settings{}, errors.Wrapf(ErrInvalidSettings, "colors: %v", err)
	}

	if len(file.Quadrants) > 0 {
		qs := make(Quadrants, len(file.Quadrants))
		for i, q := range file.Quadrants {
			qs[i] = Region{
				ID:  Quadrant(q.ID),
				Min: image.Pt(q.Min[0], q.Min[1]),
				Max: image.Pt(q.Max[0], q.Max[1]),
			}
		}
		s.Quadrants = qs
	}
	qs, err := s.Quadrants.Normalize()
	if err != nil {
		return Settings{}, errors.Wrapf(ErrInvalidSettings, "quadrants: %v", err)
	}
	s.Quadrants = qs

	return s, nil
}
