package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

type FilterKind string

const (
	FilterGrayscale FilterKind = "grayscale"
	FilterSepia     FilterKind = "sepia"
	FilterBright    FilterKind = "brightness"
	FilterContrast  FilterKind = "contrast"
	FilterSaturate  FilterKind = "saturate"
	FilterHueRotate FilterKind = "hue-rotate"
	FilterBlur      FilterKind = "blur"
)

// Filter is one CSS-style filter function. Amount is a fraction (1 = 100%)
// for the percentage filters, degrees for hue-rotate and pixels for blur.
type Filter struct {
	Kind   FilterKind `json:"kind"`
	Amount float64    `json:"amount"`
}

func (f Filter) String() string {
	amount := formatAmount(f.Amount*100) + "%"
	switch f.Kind {
	case FilterHueRotate:
		amount = formatAmount(f.Amount) + "deg"
	case FilterBlur:
		amount = formatAmount(f.Amount) + "px"
	}
	return fmt.Sprintf("%s(%s)", f.Kind, amount)
}

// FilterChain is applied left to right, each step seeing the clamped output of
// the previous one.
type FilterChain []Filter

func (fc FilterChain) String() string {
	if len(fc) == 0 {
		return "none"
	}
	parts := make([]string, len(fc))
	for i, f := range fc {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

// Apply runs the chain over img. Consecutive colour filters are fused into a
// single pass over the pixels.
func (fc FilterChain) Apply(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	var pending []colorMatrix
	flush := func() {
		if len(pending) == 0 {
			return
		}
		steps := pending
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
			for _, m := range steps {
				r, g, b = m.apply(r, g, b)
			}
			return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: c.A}
		})
		pending = nil
	}

	for _, f := range fc {
		if f.Kind == FilterBlur {
			flush()
			if f.Amount > 0 {
				out = imaging.Blur(out, f.Amount)
			}
			continue
		}
		pending = append(pending, f.matrix())
	}
	flush()
	return out
}

// colorMatrix is an affine map on RGB in [0,1]: the 3x3 matrix followed by
// the offset column.
type colorMatrix struct {
	m   [9]float64
	off [3]float64
}

func (cm colorMatrix) apply(r, g, b float64) (float64, float64, float64) {
	m := cm.m
	nr := m[0]*r + m[1]*g + m[2]*b + cm.off[0]
	ng := m[3]*r + m[4]*g + m[5]*b + cm.off[1]
	nb := m[6]*r + m[7]*g + m[8]*b + cm.off[2]
	return clamp01(nr), clamp01(ng), clamp01(nb)
}

func scaleMatrix(k, offset float64) colorMatrix {
	return colorMatrix{
		m:   [9]float64{k, 0, 0, 0, k, 0, 0, 0, k},
		off: [3]float64{offset, offset, offset},
	}
}

// matrix follows the colour matrices of the Filter Effects specification.
func (f Filter) matrix() colorMatrix {
	a := f.Amount
	switch f.Kind {
	case FilterBright:
		return scaleMatrix(a, 0)
	case FilterContrast:
		return scaleMatrix(a, 0.5-0.5*a)
	case FilterGrayscale:
		i := 1 - math.Min(a, 1)
		return colorMatrix{m: [9]float64{
			0.2126 + 0.7874*i, 0.7152 - 0.7152*i, 0.0722 - 0.0722*i,
			0.2126 - 0.2126*i, 0.7152 + 0.2848*i, 0.0722 - 0.0722*i,
			0.2126 - 0.2126*i, 0.7152 - 0.7152*i, 0.0722 + 0.9278*i,
		}}
	case FilterSepia:
		i := 1 - math.Min(a, 1)
		return colorMatrix{m: [9]float64{
			0.393 + 0.607*i, 0.769 - 0.769*i, 0.189 - 0.189*i,
			0.349 - 0.349*i, 0.686 + 0.314*i, 0.168 - 0.168*i,
			0.272 - 0.272*i, 0.534 - 0.534*i, 0.131 + 0.869*i,
		}}
	case FilterSaturate:
		return colorMatrix{m: [9]float64{
			0.213 + 0.787*a, 0.715 - 0.715*a, 0.072 - 0.072*a,
			0.213 - 0.213*a, 0.715 + 0.285*a, 0.072 - 0.072*a,
			0.213 - 0.213*a, 0.715 - 0.715*a, 0.072 + 0.928*a,
		}}
	case FilterHueRotate:
		rad := a * math.Pi / 180
		cos, sin := math.Cos(rad), math.Sin(rad)
		return colorMatrix{m: [9]float64{
			0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928,
			0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283,
			0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072,
		}}
	}
	return scaleMatrix(1, 0)
}

// formatAmount drops float noise such as 1.1*100 = 110.00000000000001.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

type Preset string

const (
	PresetNormal  Preset = "Normal"
	PresetBW      Preset = "B&W"
	PresetSepia   Preset = "Sepia"
	PresetVintage Preset = "Vintage"
	PresetCool    Preset = "Cool"
)

var presetFilters = map[Preset]FilterChain{
	PresetNormal:  nil,
	PresetBW:      {{Kind: FilterGrayscale, Amount: 1}},
	PresetSepia:   {{Kind: FilterSepia, Amount: 1}},
	PresetVintage: {{Kind: FilterSepia, Amount: 0.5}, {Kind: FilterContrast, Amount: 0.85}, {Kind: FilterBright, Amount: 0.95}},
	PresetCool: {
		{Kind: FilterBright, Amount: 1.1},
		{Kind: FilterContrast, Amount: 0.9},
		{Kind: FilterSaturate, Amount: 1.1},
		{Kind: FilterHueRotate, Amount: 180},
	},
}

// Presets lists the presets in display order.
func Presets() []Preset {
	return []Preset{PresetNormal, PresetBW, PresetSepia, PresetVintage, PresetCool}
}

func (p Preset) Valid() bool {
	_, ok := presetFilters[p]
	return ok
}

func (p Preset) Filters() FilterChain {
	return presetFilters[p]
}
