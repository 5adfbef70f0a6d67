package main

import (
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"
)

const (
	minLevel    = 0
	maxLevel    = 200
	neutral     = 100
	maxBlur     = 10
	maxRotation = 180
)

// Adjustments is the complete editor state. It is replaced as a whole; the
// compositor never keeps any of it between calls.
type Adjustments struct {
	Preset     Preset  `json:"preset"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Blur       float64 `json:"blur"`
	Rotation   float64 `json:"rotation"`
}

func NeutralAdjustments() Adjustments {
	return Adjustments{
		Preset:     PresetNormal,
		Brightness: neutral,
		Contrast:   neutral,
		Saturation: neutral,
	}
}

func (a Adjustments) String() string {
	return fmt.Sprintf("adjust(preset=%s,b=%.1f,c=%.1f,s=%.1f,blur=%.1f,rot=%.1f)",
		a.Preset, a.Brightness, a.Contrast, a.Saturation, a.Blur, a.Rotation)
}

func (a Adjustments) ID() string {
	return fmt.Sprintf("%x", md5.Sum([]byte(a.String())))
}

func (a Adjustments) Validate() error {
	switch {
	case !a.Preset.Valid():
		return invalid("preset", fmt.Sprintf("unknown preset %q", a.Preset))
	case outside(a.Brightness, minLevel, maxLevel):
		return invalid("brightness", "must be between 0 and 200")
	case outside(a.Contrast, minLevel, maxLevel):
		return invalid("contrast", "must be between 0 and 200")
	case outside(a.Saturation, minLevel, maxLevel):
		return invalid("saturation", "must be between 0 and 200")
	case outside(a.Blur, 0, maxBlur):
		return invalid("blur", "must be between 0 and 10")
	case outside(a.Rotation, -maxRotation, maxRotation):
		return invalid("rotation", "must be between -180 and 180")
	}
	return nil
}

// Clamp pulls every numeric field into range. NaN fields and an unknown preset
// fall back to neutral.
func (a Adjustments) Clamp() Adjustments {
	if !a.Preset.Valid() {
		a.Preset = PresetNormal
	}
	a.Brightness = clampTo(a.Brightness, minLevel, maxLevel, neutral)
	a.Contrast = clampTo(a.Contrast, minLevel, maxLevel, neutral)
	a.Saturation = clampTo(a.Saturation, minLevel, maxLevel, neutral)
	a.Blur = clampTo(a.Blur, 0, maxBlur, 0)
	a.Rotation = clampTo(a.Rotation, -maxRotation, maxRotation, 0)
	return a
}

// Filters is the combined filter expression: the preset first, then
// brightness, contrast, saturation and blur.
func (a Adjustments) Filters() FilterChain {
	preset := a.Preset.Filters()
	chain := make(FilterChain, 0, len(preset)+4)
	chain = append(chain, preset...)
	return append(chain,
		Filter{Kind: FilterBright, Amount: a.Brightness / 100},
		Filter{Kind: FilterContrast, Amount: a.Contrast / 100},
		Filter{Kind: FilterSaturate, Amount: a.Saturation / 100},
		Filter{Kind: FilterBlur, Amount: a.Blur},
	)
}

// Compositor renders Adjustments over a source asset. Output depends only on
// the source bytes and the adjustments.
type Compositor struct {
	Encoder Encoder
}

func NewCompositor(enc Encoder) *Compositor {
	return &Compositor{Encoder: enc}
}

func (c *Compositor) Composite(ctx context.Context, src RasterAsset, adj Adjustments) (RasterAsset, error) {
	if err := adj.Validate(); err != nil {
		return RasterAsset{}, err
	}
	img, err := src.Decode()
	if err != nil {
		return RasterAsset{}, err
	}
	if err := ctx.Err(); err != nil {
		return RasterAsset{}, err
	}

	asset, err := c.Encoder.Encode(Render(img, adj))
	if err != nil {
		return RasterAsset{}, fmt.Errorf("failed to composite: %w", err)
	}
	log.Ctx(ctx).Debug().
		Stringer("adjustments", adj).
		Str("filter", adj.Filters().String()).
		Int("bytes", asset.Len()).
		Msg("composited")
	return asset, nil
}

// Render draws img onto a surface of its own native size, rotated about the
// surface centre, then runs the filter chain over the result. Rotation always
// happens before filtering.
func Render(img image.Image, adj Adjustments) image.Image {
	b := img.Bounds()
	var surface image.Image
	if adj.Rotation == 0 {
		surface = imaging.Clone(img)
	} else {
		w, h := float64(b.Dx()), float64(b.Dy())
		dc := gg.NewContext(b.Dx(), b.Dy())
		dc.Translate(w/2, h/2)
		dc.Rotate(gg.Radians(adj.Rotation))
		dc.Translate(-w/2, -h/2)
		dc.DrawImage(img, -b.Min.X, -b.Min.Y)
		surface = dc.Image()
	}
	return adj.Filters().Apply(surface)
}

func outside(v, lo, hi float64) bool {
	return math.IsNaN(v) || v < lo || v > hi
}

func clampTo(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}
