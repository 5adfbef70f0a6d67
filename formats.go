package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CustomFormat is the selection label for user supplied print dimensions.
const CustomFormat = "custom"

const (
	defaultFormat      = "11x15 cm"
	defaultCustomPrice = 1.50
)

// FormatOption is one print size of the catalogue. Units are centimetres.
type FormatOption struct {
	Label       string  `json:"label" yaml:"label"`
	UnitPrice   float64 `json:"unit_price" yaml:"price"`
	WidthUnits  float64 `json:"width" yaml:"width"`
	HeightUnits float64 `json:"height" yaml:"height"`
}

func (f FormatOption) Ratio() float64 {
	return f.WidthUnits / f.HeightUnits
}

type Catalog struct {
	Formats     []FormatOption `json:"formats" yaml:"formats"`
	CustomPrice float64        `json:"custom_price" yaml:"custom_price"`
	Default     string         `json:"default" yaml:"default"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Formats: []FormatOption{
			{Label: "9x13 cm", UnitPrice: 0.70, WidthUnits: 9, HeightUnits: 13},
			{Label: "10x15 cm", UnitPrice: 0.75, WidthUnits: 10, HeightUnits: 15},
			{Label: "11x15 cm", UnitPrice: 0.80, WidthUnits: 11, HeightUnits: 15},
			{Label: "13x13 cm", UnitPrice: 0.85, WidthUnits: 13, HeightUnits: 13},
			{Label: "13x18 cm", UnitPrice: 0.90, WidthUnits: 13, HeightUnits: 18},
			{Label: "15x15 cm", UnitPrice: 0.95, WidthUnits: 15, HeightUnits: 15},
			{Label: "15x20 cm", UnitPrice: 1.00, WidthUnits: 15, HeightUnits: 20},
			{Label: "20x20 cm", UnitPrice: 1.20, WidthUnits: 20, HeightUnits: 20},
		},
		CustomPrice: defaultCustomPrice,
		Default:     defaultFormat,
	}
}

// LoadCatalog reads a YAML catalogue. Missing custom price and default fall back
// to the built-in values.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if c.CustomPrice == 0 {
		c.CustomPrice = defaultCustomPrice
	}
	if c.Default == "" && len(c.Formats) > 0 {
		c.Default = c.Formats[0].Label
	}
	if err := c.validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

func (c Catalog) validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("no formats defined")
	}
	seen := make(map[string]bool, len(c.Formats))
	for i, f := range c.Formats {
		switch {
		case strings.TrimSpace(f.Label) == "" || f.Label == CustomFormat:
			return fmt.Errorf("format %d: invalid label %q", i, f.Label)
		case seen[f.Label]:
			return fmt.Errorf("format %d: duplicate label %q", i, f.Label)
		case f.WidthUnits <= 0 || f.HeightUnits <= 0:
			return fmt.Errorf("format %q: dimensions must be positive", f.Label)
		case f.UnitPrice <= 0:
			return fmt.Errorf("format %q: price must be positive", f.Label)
		}
		seen[f.Label] = true
	}
	if c.CustomPrice < 0 {
		return fmt.Errorf("custom price must not be negative")
	}
	if _, ok := c.Lookup(c.Default); !ok {
		return fmt.Errorf("default format %q is not in the catalog", c.Default)
	}
	return nil
}

func (c Catalog) Lookup(label string) (FormatOption, bool) {
	for _, f := range c.Formats {
		if f.Label == label {
			return f, true
		}
	}
	return FormatOption{}, false
}

// FormatSelection is what the user picked: a catalogue label, or CustomFormat
// together with a width and height.
type FormatSelection struct {
	Label        string  `json:"format"`
	CustomWidth  float64 `json:"custom_width,omitempty"`
	CustomHeight float64 `json:"custom_height,omitempty"`
}

func (s FormatSelection) IsCustom() bool {
	return s.Label == CustomFormat
}

// Ratio returns width/height of the selection, false if it cannot be derived
// yet (unknown label or incomplete custom dimensions).
func (s FormatSelection) Ratio(c Catalog) (float64, bool) {
	if s.IsCustom() {
		if s.CustomWidth > 0 && s.CustomHeight > 0 {
			return s.CustomWidth / s.CustomHeight, true
		}
		return 0, false
	}
	f, ok := c.Lookup(s.Label)
	if !ok {
		return 0, false
	}
	return f.Ratio(), true
}

func (s FormatSelection) Price(c Catalog) float64 {
	if f, ok := c.Lookup(s.Label); ok && !s.IsCustom() {
		return f.UnitPrice
	}
	return c.CustomPrice
}

// String is the label stored on a cart line item.
func (s FormatSelection) String() string {
	if s.IsCustom() {
		return fmt.Sprintf("%sx%s cm", formatUnits(s.CustomWidth), formatUnits(s.CustomHeight))
	}
	return s.Label
}

func (s FormatSelection) validate(c Catalog) error {
	if s.IsCustom() {
		if s.CustomWidth <= 0 || s.CustomHeight <= 0 {
			return invalid("format", "custom width and height must be positive")
		}
		return nil
	}
	if _, ok := c.Lookup(s.Label); !ok {
		return invalid("format", fmt.Sprintf("unknown format %q", s.Label))
	}
	return nil
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
