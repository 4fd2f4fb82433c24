// Package accents holds the accent palette and quick presets. The palette is
// owned here and only ever read by the board.
package accents

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/mcdev12/prepboard/go/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed palette.yaml
var defaultPaletteYAML []byte

// ErrEmptyPalette is returned when a palette document has no accents.
var ErrEmptyPalette = errors.New("palette has no accents")

// Palette is an immutable, ordered set of accent options.
type Palette struct {
	options []models.AccentOption
	byID    map[string]int
	presets []models.TimerPreset
}

type paletteDocument struct {
	Accents []models.AccentOption `yaml:"accents"`
	Presets []models.TimerPreset  `yaml:"presets"`
}

// Parse decodes a YAML palette document.
func Parse(data []byte) (*Palette, error) {
	var doc paletteDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	if len(doc.Accents) == 0 {
		return nil, ErrEmptyPalette
	}

	p := &Palette{
		options: doc.Accents,
		byID:    make(map[string]int, len(doc.Accents)),
		presets: doc.Presets,
	}
	for i, opt := range doc.Accents {
		if opt.ID == "" {
			return nil, fmt.Errorf("accent at index %d has no id", i)
		}
		if _, dup := p.byID[opt.ID]; dup {
			return nil, fmt.Errorf("duplicate accent id %q", opt.ID)
		}
		p.byID[opt.ID] = i
	}
	return p, nil
}

// Default returns the built-in palette. It panics if the embedded document is
// broken, which can only happen at build time.
func Default() *Palette {
	p, err := Parse(defaultPaletteYAML)
	if err != nil {
		panic(fmt.Errorf("embedded palette: %w", err))
	}
	return p
}

// Lookup returns the accent with the given id.
func (p *Palette) Lookup(id string) (models.AccentOption, bool) {
	i, ok := p.byID[id]
	if !ok {
		return models.AccentOption{}, false
	}
	return p.options[i], true
}

// DefaultAccent is the fallback used when a reference cannot be resolved.
func (p *Palette) DefaultAccent() models.AccentOption {
	return p.options[0]
}

// Resolve looks the id up and falls back to the default accent.
func (p *Palette) Resolve(id string) models.AccentOption {
	if opt, ok := p.Lookup(id); ok {
		return opt
	}
	return p.DefaultAccent()
}

// All returns a copy of every accent in palette order.
func (p *Palette) All() []models.AccentOption {
	out := make([]models.AccentOption, len(p.options))
	copy(out, p.options)
	return out
}

// Presets returns a copy of the quick presets.
func (p *Palette) Presets() []models.TimerPreset {
	out := make([]models.TimerPreset, len(p.presets))
	copy(out, p.presets)
	return out
}
